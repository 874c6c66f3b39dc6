package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"ftpgram/internal/services/remoteftp"
)

// MemoryFTP is an in-memory remoteftp.Dialer for exercising poller and
// transfer code without a network. Paths are stored flat; directories are
// inferred from path components.
type MemoryFTP struct {
	mu      sync.Mutex
	files   map[string]memoryFile
	deleted []string

	// Failure hooks. When set, the matching operation returns the error.
	DialErr     error
	ListErr     error
	RetrieveErr error
	DeleteErr   error

	// TruncateTo caps the bytes served by Retrieve to simulate a short read.
	TruncateTo int64

	dials int
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// NewMemoryFTP constructs an empty fake server.
func NewMemoryFTP() *MemoryFTP {
	return &MemoryFTP{files: make(map[string]memoryFile)}
}

// Put stores a file at the given remote path.
func (m *MemoryFTP) Put(remotePath string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(remotePath)] = memoryFile{data: append([]byte(nil), data...), modTime: modTime}
}

// Deleted returns remote paths removed through the connection, in order.
func (m *MemoryFTP) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// SetTruncateTo adjusts the short-read cap while connections may be active.
func (m *MemoryFTP) SetTruncateTo(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TruncateTo = n
}

// Dials returns how many sessions were opened.
func (m *MemoryFTP) Dials() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials
}

// Dial implements remoteftp.Dialer.
func (m *MemoryFTP) Dial(ctx context.Context) (remoteftp.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DialErr != nil {
		return nil, m.DialErr
	}
	m.dials++
	return &memoryConn{server: m}, nil
}

type memoryConn struct {
	server *MemoryFTP
	closed bool
}

func (c *memoryConn) List(ctx context.Context, dir string) ([]remoteftp.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	if c.server.ListErr != nil {
		return nil, c.server.ListErr
	}

	cleanDir := path.Clean(dir)
	if cleanDir == "." || cleanDir == "" {
		cleanDir = "/"
	}
	prefix := cleanDir + "/"
	if cleanDir == "/" {
		prefix = "/"
	}
	seen := make(map[string]remoteftp.Entry)
	for filePath, file := range c.server.files {
		if !strings.HasPrefix(filePath, prefix) {
			continue
		}
		rest := strings.TrimPrefix(filePath, prefix)
		name, _, isNested := strings.Cut(rest, "/")
		entry := remoteftp.Entry{
			Name:    name,
			Path:    path.Join(cleanDir, name),
			IsDir:   isNested,
			ModTime: file.modTime,
		}
		if !isNested {
			entry.Size = int64(len(file.data))
		}
		seen[name] = entry
	}

	entries := make([]remoteftp.Entry, 0, len(seen))
	for _, entry := range seen {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *memoryConn) Retrieve(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	if c.server.RetrieveErr != nil {
		return nil, c.server.RetrieveErr
	}
	file, ok := c.server.files[path.Clean(remotePath)]
	if !ok {
		return nil, fmt.Errorf("retrieve %s: no such file", remotePath)
	}
	data := file.data
	if c.server.TruncateTo > 0 && int64(len(data)) > c.server.TruncateTo {
		data = data[:c.server.TruncateTo]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *memoryConn) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	if c.server.DeleteErr != nil {
		return c.server.DeleteErr
	}
	clean := path.Clean(remotePath)
	if _, ok := c.server.files[clean]; !ok {
		return fmt.Errorf("delete %s: no such file", remotePath)
	}
	delete(c.server.files, clean)
	c.server.deleted = append(c.server.deleted, clean)
	return nil
}

func (c *memoryConn) Close() error {
	if c.closed {
		return errors.New("connection already closed")
	}
	c.closed = true
	return nil
}

var _ remoteftp.Dialer = (*MemoryFTP)(nil)
