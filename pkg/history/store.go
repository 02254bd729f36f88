// Package history keeps the persistent record of download attempts keyed by
// beatmap content hash.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	"github.com/cperrin88/beatsync/pkg/model"
)

// Entry is the value stored per hash.
type Entry struct {
	SongInfo string    `json:"SongInfo"`
	Flag     Flag      `json:"Flag"`
	Date     time.Time `json:"Date"`
}

// Record is one element of the history file.
type Record struct {
	Key   string `json:"Key"`
	Value Entry  `json:"Value"`
}

// Store is an in-memory history backed by a JSON file. It is safe for
// concurrent use.
type Store struct {
	path        string
	loadedPath  string
	initialized bool
	entries     map[string]Entry
	rwMutex     sync.RWMutex
	writeMutex  sync.Mutex
}

// NewStore creates a store for the file at path. Call Initialize before use.
func NewStore(path string) *Store {
	return &Store{path: path, entries: make(map[string]Entry)}
}

// Path returns the history file location.
func (s *Store) Path() string {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	return s.path
}

// Initialize loads the history file once. Further calls are no-ops while the
// path is unchanged. A missing file yields an empty store.
func (s *Store) Initialize() error {
	return s.InitializeFrom(s.Path())
}

// InitializeFrom switches the store to path and loads it, unless that path is
// already loaded.
func (s *Store) InitializeFrom(path string) error {
	if path == "" {
		return errors.Wrap(errors.ErrInvalidPath, "history path cannot be empty")
	}
	cleanPath := filepath.Clean(path)

	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	if s.initialized && s.loadedPath == cleanPath {
		return nil
	}

	entries, err := load(cleanPath)
	if err != nil {
		return err
	}
	s.path = cleanPath
	s.loadedPath = cleanPath
	s.entries = entries
	s.initialized = true
	logger.Debug("History loaded", logger.Fields{"path": cleanPath, "entries": len(entries)})
	return nil
}

// IsInitialized reports whether Initialize has completed.
func (s *Store) IsInitialized() bool {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	return s.initialized
}

func load(path string) (map[string]Entry, error) {
	backup := path + fsutil.BackupSuffix
	if _, err := os.Stat(backup); err == nil {
		return recoverFromBackup(path, backup)
	}

	entries, err := readFile(path)
	if os.IsNotExist(err) {
		return make(map[string]Entry), nil
	}
	return entries, err
}

// recoverFromBackup handles a write that was interrupted. A non-empty primary
// file that still parses is newer than the backup and wins; otherwise the
// backup is restored.
func recoverFromBackup(path, backup string) (map[string]Entry, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		if entries, err := readFile(path); err == nil {
			if rmErr := os.Remove(backup); rmErr != nil {
				logger.Warn("Failed to remove stale history backup", logger.Fields{"path": backup, "error": rmErr})
			}
			return entries, nil
		}
	}

	logger.Warn("Recovering history from backup", logger.Fields{"path": path})
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove partial history file: %w", err)
	}
	if err := fsutil.Move(backup, path); err != nil {
		return nil, fmt.Errorf("failed to restore history backup: %w", err)
	}
	return readFile(path)
}

func readFile(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]Entry)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(errors.ErrHistoryCorrupt, "%s: %v", path, err)
	}
	for _, r := range records {
		key := model.NormalizeHash(r.Key)
		if key == "" {
			continue
		}
		entries[key] = r.Value
	}
	return entries, nil
}

func (s *Store) checkInitialized() error {
	if !s.initialized {
		return errors.ErrHistoryUninitialized
	}
	return nil
}

// TryAdd stores entry under hash. It returns false when the hash is empty or
// already present; the existing entry is left unchanged.
func (s *Store) TryAdd(hash string, entry Entry) (bool, error) {
	key := model.NormalizeHash(hash)
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	if err := s.checkInitialized(); err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}
	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	s.entries[key] = entry
	return true, nil
}

// AddOrUpdate inserts or updates the entry for hash and refreshes its date.
// An empty songInfo keeps the stored one.
func (s *Store) AddOrUpdate(hash, songInfo string, flag Flag) error {
	key := model.NormalizeHash(hash)
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	if err := s.checkInitialized(); err != nil {
		return err
	}
	if key == "" {
		return errors.Wrap(errors.ErrInvalidHash, "history key cannot be empty")
	}
	entry := s.entries[key]
	if songInfo != "" {
		entry.SongInfo = songInfo
	}
	entry.Flag = flag
	entry.Date = time.Now()
	s.entries[key] = entry
	return nil
}

// TryGetValue returns the entry for hash.
func (s *Store) TryGetValue(hash string) (Entry, bool) {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	entry, ok := s.entries[model.NormalizeHash(hash)]
	return entry, ok
}

// ContainsKey reports whether hash has an entry.
func (s *Store) ContainsKey(hash string) bool {
	_, ok := s.TryGetValue(hash)
	return ok
}

// TryUpdateFlag sets the flag of an existing entry.
func (s *Store) TryUpdateFlag(hash string, flag Flag) (bool, error) {
	return s.update(hash, func(e *Entry) { e.Flag = flag })
}

// TryUpdateDate sets the date of an existing entry.
func (s *Store) TryUpdateDate(hash string, date time.Time) (bool, error) {
	return s.update(hash, func(e *Entry) { e.Date = date })
}

func (s *Store) update(hash string, fn func(*Entry)) (bool, error) {
	key := model.NormalizeHash(hash)
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	if err := s.checkInitialized(); err != nil {
		return false, err
	}
	entry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	fn(&entry)
	s.entries[key] = entry
	return true, nil
}

// TryRemove deletes the entry for hash.
func (s *Store) TryRemove(hash string) (bool, error) {
	key := model.NormalizeHash(hash)
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	if err := s.checkInitialized(); err != nil {
		return false, err
	}
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	return len(s.entries)
}

// Entries returns a snapshot sorted by date, newest first. Ties are ordered
// by hash so the file content is deterministic.
func (s *Store) Entries() []Record {
	s.rwMutex.RLock()
	records := make([]Record, 0, len(s.entries))
	for k, v := range s.entries {
		records = append(records, Record{Key: k, Value: v})
	}
	s.rwMutex.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Value.Date.Equal(records[j].Value.Date) {
			return records[i].Value.Date.After(records[j].Value.Date)
		}
		return records[i].Key < records[j].Key
	})
	return records
}

// WriteToFile persists the store. The previous file is copied to a .bak
// sidecar first and the sidecar is removed only after the new content is on
// disk, so an interrupted write can always be recovered.
func (s *Store) WriteToFile() error {
	if !s.IsInitialized() {
		return errors.ErrHistoryUninitialized
	}

	data, err := json.MarshalIndent(s.Entries(), "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrHistoryWrite, err.Error())
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	path := s.Path()
	backup := path + fsutil.BackupSuffix
	if err := fsutil.EnsureFileDir(path); err != nil {
		return errors.Wrapf(errors.ErrHistoryWrite, "create directory: %v", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := fsutil.Copy(path, backup); err != nil {
			return errors.Wrapf(errors.ErrHistoryWrite, "backup: %v", err)
		}
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(errors.ErrHistoryWrite, "remove old file: %v", err)
		}
	}

	if err := writeSynced(path, data); err != nil {
		return errors.Wrap(errors.ErrHistoryWrite, err.Error())
	}

	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove history backup", logger.Fields{"path": backup, "error": err})
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// TryWriteToFile persists the store and logs instead of returning errors.
func (s *Store) TryWriteToFile() bool {
	if err := s.WriteToFile(); err != nil {
		logger.Error("Failed to write history file", logger.Fields{"path": s.Path(), "error": err})
		return false
	}
	return true
}
