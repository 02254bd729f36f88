// Package archive reads beatmap zip archives and materialises them as
// directories in a songs store.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mholt/archives"
)

type seekReaderAt interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Zip is an opened zip archive restricted to its top-level regular files.
// It implements fs.FS and fs.ReadDirFS over those entries.
type Zip struct {
	entries []archives.FileInfo
	byName  map[string]archives.FileInfo
	cleanup func() error
}

// OpenZip reads the central directory of the zip in r. Readers that cannot
// seek are spooled to a temporary file first, which Close removes.
func OpenZip(ctx context.Context, r io.Reader) (*Zip, error) {
	if r == nil {
		return nil, fmt.Errorf("zip source cannot be nil")
	}

	src, cleanup, err := seekable(r)
	if err != nil {
		return nil, err
	}

	z := &Zip{byName: make(map[string]archives.FileInfo), cleanup: cleanup}
	handler := func(_ context.Context, f archives.FileInfo) error {
		name := strings.TrimPrefix(path.Clean(strings.ReplaceAll(f.NameInArchive, "\\", "/")), "./")
		if f.IsDir() || !f.Mode().IsRegular() || strings.Contains(name, "/") || name == "." || name == ".." {
			return nil
		}
		f.NameInArchive = name
		if _, dup := z.byName[name]; dup {
			return nil
		}
		z.byName[name] = f
		z.entries = append(z.entries, f)
		return nil
	}

	if err := (archives.Zip{}).Extract(ctx, src, handler); err != nil {
		_ = z.Close()
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}
	return z, nil
}

// seekable returns r itself when it already supports random access.
func seekable(r io.Reader) (seekReaderAt, func() error, error) {
	if s, ok := r.(seekReaderAt); ok {
		return s, func() error { return nil }, nil
	}

	tmp, err := os.CreateTemp("", "beatsync-*.zip")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	cleanup := func() error {
		_ = tmp.Close()
		return os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to spool zip archive: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to rewind spool file: %w", err)
	}
	return tmp, cleanup, nil
}

// Entries returns the top-level regular files in archive order.
func (z *Zip) Entries() []archives.FileInfo {
	out := make([]archives.FileInfo, len(z.entries))
	copy(out, z.entries)
	return out
}

// EntriesBySize returns the top-level regular files, largest first.
// Ties keep archive order.
func (z *Zip) EntriesBySize() []archives.FileInfo {
	out := z.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size() > out[j].Size()
	})
	return out
}

// Open implements fs.FS.
func (z *Zip) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &rootDir{zip: z}, nil
	}
	f, ok := z.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f.Open()
}

// ReadDir implements fs.ReadDirFS for the archive root.
func (z *Zip) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]fs.DirEntry, 0, len(z.entries))
	for _, f := range z.entries {
		out = append(out, fs.FileInfoToDirEntry(entryInfo{f}))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Close releases the spool file, if any.
func (z *Zip) Close() error {
	if z.cleanup == nil {
		return nil
	}
	cleanup := z.cleanup
	z.cleanup = nil
	return cleanup()
}

// entryInfo reports the cleaned top-level name instead of the stored one.
type entryInfo struct {
	archives.FileInfo
}

func (e entryInfo) Name() string { return e.NameInArchive }

type rootDir struct {
	zip *Zip
}

func (d *rootDir) Stat() (fs.FileInfo, error) { return rootInfo{}, nil }
func (d *rootDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}
func (d *rootDir) Close() error { return nil }
func (d *rootDir) ReadDir(int) ([]fs.DirEntry, error) {
	return d.zip.ReadDir(".")
}

type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }

// CreateZip writes the contents of sourceDir to w as a zip archive with the
// directory's files at the archive root.
func CreateZip(ctx context.Context, sourceDir string, w io.Writer) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	if err := (archives.Zip{}).Archive(ctx, w, files); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
