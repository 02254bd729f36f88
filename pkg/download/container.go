package download

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
)

// Container receives the bytes of one download and hands them to targets.
type Container interface {
	io.Writer
	// Reader returns an independent reader over everything written so far.
	Reader() (*io.SectionReader, error)
	Size() int64
	// Close releases the storage. It is safe to call more than once.
	Close() error
}

// ContainerFactory creates a container for one job.
type ContainerFactory func() (Container, error)

// MemoryContainer keeps the download in memory.
type MemoryContainer struct {
	mu     sync.RWMutex
	buf    bytes.Buffer
	closed bool
}

// NewMemoryContainer returns an empty in-memory container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{}
}

func (c *MemoryContainer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, errors.ErrContainerClosed
	}
	return c.buf.Write(p)
}

// Reader implements Container.
func (c *MemoryContainer) Reader() (*io.SectionReader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, errors.ErrContainerClosed
	}
	data := c.buf.Bytes()
	return io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))), nil
}

// Size implements Container.
func (c *MemoryContainer) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(c.buf.Len())
}

// Close implements Container.
func (c *MemoryContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.buf = bytes.Buffer{}
	return nil
}

// FileContainer spools the download to a temporary file that Close removes.
type FileContainer struct {
	mu        sync.RWMutex
	file      *os.File
	size      int64
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewFileContainer creates a spool file in dir, or the system temp dir when
// dir is empty.
func NewFileContainer(dir string) (*FileContainer, error) {
	if dir != "" {
		if err := fsutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create download directory %s: %w", dir, err)
		}
	}
	f, err := os.CreateTemp(dir, "beatsync-dl-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create download file: %w", err)
	}
	return &FileContainer{file: f}, nil
}

// Path returns the spool file location.
func (c *FileContainer) Path() string {
	return c.file.Name()
}

func (c *FileContainer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, errors.ErrContainerClosed
	}
	n, err := c.file.WriteAt(p, c.size)
	c.size += int64(n)
	return n, err
}

// Reader implements Container.
func (c *FileContainer) Reader() (*io.SectionReader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, errors.ErrContainerClosed
	}
	return io.NewSectionReader(c.file, 0, c.size), nil
}

// Size implements Container.
func (c *FileContainer) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Close implements Container.
func (c *FileContainer) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		if err := c.file.Close(); err != nil {
			c.closeErr = err
		}
		if err := os.Remove(c.file.Name()); err != nil && !os.IsNotExist(err) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// MemoryContainers is a ContainerFactory for in-memory downloads.
func MemoryContainers() (Container, error) {
	return NewMemoryContainer(), nil
}

// FileContainers returns a ContainerFactory spooling into dir.
func FileContainers(dir string) ContainerFactory {
	return func() (Container, error) {
		return NewFileContainer(dir)
	}
}
