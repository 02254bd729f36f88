package playlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	"github.com/cperrin88/beatsync/pkg/model"
	"github.com/cperrin88/beatsync/pkg/platform"
)

type entry struct {
	playlist *Playlist
	dirty    bool
}

// Manager holds the named playlists of one directory. Playlists are keyed by
// file name without extension.
type Manager struct {
	dir       string
	rwMutex   sync.RWMutex
	playlists map[string]*entry
}

// NewManager creates a manager for dir. Nothing is read until Load.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, playlists: make(map[string]*entry)}
}

// Dir returns the playlist directory.
func (m *Manager) Dir() string { return m.dir }

// FileName returns the file name used for the playlist called name.
func FileName(name string) (string, error) {
	clean := fsutil.SanitizeFileName(name, platform.Current())
	if clean == "" {
		return "", errors.Wrapf(errors.ErrInvalidPlaylist, "%q", name)
	}
	return clean + FileExtension, nil
}

// Load reads every playlist file in the directory. A missing directory loads
// nothing. Unparseable files are logged and skipped.
func (m *Manager) Load() error {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read playlist directory %s", m.dir)
	}

	loaded := make(map[string]*entry, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), FileExtension) {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		p, err := ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable playlist", logger.Fields{"path": path, "error": err})
			continue
		}
		loaded[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = &entry{playlist: p}
	}

	m.rwMutex.Lock()
	defer m.rwMutex.Unlock()
	for name, e := range loaded {
		if existing, ok := m.playlists[name]; ok && existing.dirty {
			continue
		}
		m.playlists[name] = e
	}
	return nil
}

// ReadFile parses a playlist file.
func ReadFile(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(errors.ErrPlaylistParse, "%s: %v", path, err)
	}
	if p.Songs == nil {
		p.Songs = []Song{}
	}
	return &p, nil
}

// Get returns a copy of the playlist called name.
func (m *Manager) Get(name string) (*Playlist, bool) {
	m.rwMutex.RLock()
	defer m.rwMutex.RUnlock()
	e, ok := m.playlists[name]
	if !ok {
		return nil, false
	}
	return e.playlist.clone(), true
}

// Names returns the known playlist names, sorted.
func (m *Manager) Names() []string {
	m.rwMutex.RLock()
	defer m.rwMutex.RUnlock()
	names := make([]string, 0, len(m.playlists))
	for name := range m.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup returns the playlist called name, creating it. Callers hold the lock.
func (m *Manager) lookup(name string) *entry {
	e, ok := m.playlists[name]
	if !ok {
		e = &entry{playlist: New(name), dirty: true}
		m.playlists[name] = e
	}
	return e
}

// Add adds song to each named playlist, creating missing ones. It returns the
// number of playlists that changed.
func (m *Manager) Add(song model.Song, names ...string) int {
	m.rwMutex.Lock()
	defer m.rwMutex.Unlock()
	changed := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		e := m.lookup(name)
		if e.playlist.Add(song) {
			e.dirty = true
			changed++
		}
	}
	return changed
}

// RemoveByHash removes the song from every playlist and returns how many
// playlists contained it.
func (m *Manager) RemoveByHash(hash string) int {
	m.rwMutex.Lock()
	defer m.rwMutex.Unlock()
	removed := 0
	for _, e := range m.playlists {
		if e.playlist.RemoveByHash(hash) {
			e.dirty = true
			removed++
		}
	}
	return removed
}

// Clear empties the playlist called name, creating it.
func (m *Manager) Clear(name string) {
	m.rwMutex.Lock()
	defer m.rwMutex.Unlock()
	e := m.lookup(name)
	e.playlist.Clear()
	e.dirty = true
}

// Save writes every changed playlist. Each file is replaced atomically.
func (m *Manager) Save() error {
	m.rwMutex.Lock()
	defer m.rwMutex.Unlock()

	for name, e := range m.playlists {
		if !e.dirty {
			continue
		}
		fileName, err := FileName(name)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(e.playlist, "", "  ")
		if err != nil {
			return errors.Wrapf(errors.ErrPlaylistWrite, "%s: %v", name, err)
		}
		path := filepath.Join(m.dir, fileName)
		if err := fsutil.WriteFileAtomic(path, data, fsutil.FileModeDefault); err != nil {
			return errors.Wrapf(errors.ErrPlaylistWrite, "%v", err)
		}
		e.dirty = false
		logger.Debug("Saved playlist", logger.Fields{"path": path, "songs": len(e.playlist.Songs)})
	}
	return nil
}
