package archive

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cperrin88/beatsync/internal/logger"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	"github.com/cperrin88/beatsync/pkg/platform"
)

const defaultBufferSize = 32 * 1024

// Extractor materialises beatmap zips as directories.
type Extractor struct {
	// MaxPath overrides the platform path limit when positive.
	MaxPath int
	Limits  platform.Limits
	// BufferSize is the copy buffer per entry.
	BufferSize int
}

// NewExtractor returns an extractor using the limits of the running platform.
func NewExtractor() *Extractor {
	return &Extractor{Limits: platform.Current(), BufferSize: defaultBufferSize}
}

func (e *Extractor) maxPath() int {
	if e.MaxPath > 0 {
		return e.MaxPath
	}
	if e.Limits.MaxPath > 0 {
		return e.Limits.MaxPath
	}
	return platform.Current().MaxPath
}

func (e *Extractor) limits() platform.Limits {
	if e.Limits.MaxNameLength == 0 {
		return platform.Current()
	}
	return e.Limits
}

// sourceError marks failures on the archive side of a copy.
type sourceError struct{ err error }

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

type sourceReader struct {
	ctx context.Context
	r   io.Reader
}

func (s *sourceReader) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = &sourceError{err}
	}
	return n, err
}

// extraction tracks the files one ExtractZip call has written.
type extraction struct {
	dir        string
	createdDir bool
	written    []string
}

// ExtractZip writes the top-level entries of the zip in r into
// parentDir/dirName. dirName is sanitised and, if needed, shortened so the
// longest produced path fits the path limit. When overwrite is false and the
// directory exists, " (2)", " (3)", ... is appended. Entries are extracted
// largest first. On failure every file written by this call is removed.
func (e *Extractor) ExtractZip(ctx context.Context, r io.Reader, parentDir, dirName string, overwrite bool) *ExtractResult {
	if err := ctx.Err(); err != nil {
		return &ExtractResult{Status: ExtractCanceled, Err: err}
	}

	z, err := OpenZip(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return &ExtractResult{Status: ExtractCanceled, Err: ctx.Err()}
		}
		return &ExtractResult{Status: ExtractSourceFailed, Err: err}
	}
	defer func() {
		if err := z.Close(); err != nil {
			logger.Debug("Failed to remove zip spool file", logger.Fields{"error": err})
		}
	}()

	entries := z.EntriesBySize()
	if len(entries) == 0 {
		return &ExtractResult{Status: ExtractSourceFailed, Err: fmt.Errorf("archive has no top-level files")}
	}

	limits := e.limits()
	names := make([]string, len(entries))
	longest := 0
	for i, f := range entries {
		names[i] = fsutil.SanitizeFileName(f.NameInArchive, limits)
		if l := fsutil.PathLength(names[i]); l > longest {
			longest = l
		}
	}

	parentDir, err = filepath.Abs(parentDir)
	if err != nil {
		return &ExtractResult{Status: ExtractDestinationFailed, Err: errors.Wrap(errors.ErrInvalidPath, err.Error())}
	}

	dir, err := e.resolveDir(parentDir, fsutil.SanitizeFileName(dirName, limits), longest, overwrite)
	if err != nil {
		return &ExtractResult{Status: ExtractDestinationFailed, Err: err}
	}

	x := &extraction{dir: dir, createdDir: !fsutil.Exists(dir)}
	if err := fsutil.EnsureDir(dir); err != nil {
		return x.fail(ExtractDestinationFailed, fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	buf := make([]byte, e.bufferSize())
	for i, f := range entries {
		if names[i] == "" {
			logger.Warn("Skipping archive entry with an unusable name", logger.Fields{"entry": f.NameInArchive})
			continue
		}
		if err := ctx.Err(); err != nil {
			return x.fail(ExtractCanceled, err)
		}

		status, err := x.writeEntry(ctx, f.Open, filepath.Join(dir, names[i]), overwrite, buf)
		if err != nil {
			return x.fail(status, fmt.Errorf("failed to extract %s: %w", f.NameInArchive, err))
		}
	}

	return &ExtractResult{Status: ExtractSuccess, OutputDir: dir, CreatedFiles: x.written}
}

func (e *Extractor) bufferSize() int {
	if e.BufferSize > 0 {
		return e.BufferSize
	}
	return defaultBufferSize
}

// resolveDir picks the output directory: collision suffix first, then the
// path-length guard on the candidate.
func (e *Extractor) resolveDir(parentDir, base string, longestEntry int, overwrite bool) (string, error) {
	if base == "" {
		return "", errors.Wrap(errors.ErrInvalidPath, "beatmap directory name is empty")
	}

	for n := 1; ; n++ {
		suffix := ""
		if n > 1 {
			suffix = " (" + strconv.Itoa(n) + ")"
		}

		name, err := e.fitName(parentDir, base, suffix, longestEntry)
		if err != nil {
			return "", err
		}
		dir := filepath.Join(parentDir, name)
		if overwrite || !fsutil.Exists(dir) {
			return dir, nil
		}
	}
}

// fitName shortens base by exactly the number of characters the longest
// produced path exceeds the limit by.
func (e *Extractor) fitName(parentDir, base, suffix string, longestEntry int) (string, error) {
	naive := fsutil.PathLength(filepath.Join(parentDir, base+suffix)) + 1 + longestEntry
	over := naive - e.maxPath()
	if over <= 0 {
		return base + suffix, nil
	}
	baseLen := fsutil.PathLength(base)
	if over >= baseLen {
		return "", errors.Wrapf(errors.ErrPathTooLong, "%s needs %d characters, limit is %d",
			filepath.Join(parentDir, base+suffix), naive, e.maxPath())
	}
	return fsutil.TruncateRunes(base, baseLen-over) + suffix, nil
}

func (x *extraction) writeEntry(ctx context.Context, open func() (fs.File, error), dst string, overwrite bool, buf []byte) (ExtractStatus, error) {
	src, err := open()
	if err != nil {
		return ExtractSourceFailed, err
	}
	defer func() { _ = src.Close() }()

	var out *os.File
	if overwrite {
		out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	} else {
		out, err = fsutil.CreateNew(dst, fsutil.FileModeDefault)
	}
	if err != nil {
		return ExtractDestinationFailed, err
	}
	x.written = append(x.written, dst)

	_, err = io.CopyBuffer(out, &sourceReader{ctx: ctx, r: src}, buf)
	closeErr := out.Close()
	switch {
	case ctx.Err() != nil:
		return ExtractCanceled, ctx.Err()
	case err != nil:
		var se *sourceError
		if stderrors.As(err, &se) {
			return ExtractSourceFailed, se.err
		}
		return ExtractDestinationFailed, err
	case closeErr != nil:
		return ExtractDestinationFailed, closeErr
	}
	return ExtractSuccess, nil
}

// fail rolls back and builds the failure result. Removal problems are logged.
func (x *extraction) fail(status ExtractStatus, err error) *ExtractResult {
	for _, f := range x.written {
		if rmErr := os.Remove(f); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove partially extracted file", logger.Fields{"file": f, "error": rmErr})
		}
	}
	if x.createdDir && fsutil.IsEmptyDir(x.dir) {
		if rmErr := os.Remove(x.dir); rmErr != nil {
			logger.Warn("Failed to remove beatmap directory", logger.Fields{"dir": x.dir, "error": rmErr})
		}
	}
	return &ExtractResult{Status: status, OutputDir: x.dir, CreatedFiles: x.written, Err: err}
}
