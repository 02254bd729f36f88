package beatmap

import (
	"context"
	"crypto/sha1" //nolint:gosec // content identity, not security
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/archive"
)

// HashFS computes the content hash of the beatmap rooted at fsys: SHA-1 over
// the manifest bytes followed by every declared difficulty file, rendered as
// uppercase hex. It returns "" and no error when there is no manifest.
// Declared files that are missing are skipped with a warning.
func HashFS(fsys fs.FS) (string, error) {
	name, err := findInfo(fsys)
	if err != nil {
		return "", fmt.Errorf("failed to list beatmap files: %w", err)
	}
	if name == "" {
		return "", nil
	}

	manifest, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	info, err := ParseInfo(manifest)
	if err != nil {
		return "", err
	}

	h := sha1.New() //nolint:gosec
	h.Write(manifest)
	for _, file := range info.Files {
		if err := hashFile(h, fsys, file); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				logger.Warn("Difficulty file is missing, hash may not match", logger.Fields{"file": file})
				continue
			}
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

func hashFile(w io.Writer, fsys fs.FS, name string) error {
	if !fs.ValidPath(name) {
		return fs.ErrNotExist
	}
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

// HashDirectory hashes the beatmap in dir.
func HashDirectory(dir string) (string, error) {
	return HashFS(os.DirFS(dir))
}

// HashZip hashes the beatmap stored in a zip archive.
func HashZip(ctx context.Context, r io.Reader) (string, error) {
	z, err := archive.OpenZip(ctx, r)
	if err != nil {
		return "", err
	}
	defer func() { _ = z.Close() }()
	return HashFS(z)
}

// HashDirectories hashes every directory concurrently. Directories without a
// manifest are left out of the result. Directories that fail to hash are
// left out too and their errors are joined into the returned error.
func HashDirectories(ctx context.Context, dirs []string) (map[string]string, error) {
	var (
		mu     sync.Mutex
		hashes = make(map[string]string, len(dirs))
		errs   []error
	)

	var g errgroup.Group
	for _, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hash, err := HashDirectory(dir)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("failed to hash %s: %w", dir, err))
			case hash != "":
				hashes[dir] = hash
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return hashes, err
	}
	return hashes, stderrors.Join(errs...)
}
