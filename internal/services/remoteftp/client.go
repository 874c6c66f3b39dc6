package remoteftp

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"ftpgram/internal/config"
)

// Entry describes a remote file or directory observed during a listing.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Conn is one logged-in FTP session. Sessions are cheap and short-lived;
// each poll cycle and each transfer opens its own.
type Conn interface {
	List(ctx context.Context, dir string) ([]Entry, error)
	Retrieve(ctx context.Context, remotePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, remotePath string) error
	Close() error
}

// Dialer opens connections to the configured server.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// ServerDialer dials the FTP server named in the bridge configuration.
type ServerDialer struct {
	addr     string
	user     string
	password string
	timeout  time.Duration
}

// NewServerDialer constructs a dialer from configuration.
func NewServerDialer(cfg *config.Config) *ServerDialer {
	return &ServerDialer{
		addr:     cfg.FTPAddr(),
		user:     cfg.FTP.User,
		password: cfg.FTP.Password,
		timeout:  time.Duration(cfg.FTP.DialTimeout) * time.Second,
	}
}

// Dial connects and logs in, returning a live session.
func (d *ServerDialer) Dial(ctx context.Context) (Conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if d.timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(d.timeout))
	}
	serverConn, err := ftp.Dial(d.addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.addr, err)
	}
	if err := serverConn.Login(d.user, d.password); err != nil {
		_ = serverConn.Quit()
		return nil, fmt.Errorf("login as %s: %w", d.user, err)
	}
	return &conn{server: serverConn}, nil
}

type conn struct {
	server *ftp.ServerConn
}

func (c *conn) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.server.List(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		name := strings.TrimSpace(item.Name)
		if name == "" || name == "." || name == ".." {
			continue
		}
		switch item.Type {
		case ftp.EntryTypeFile, ftp.EntryTypeFolder:
		default:
			continue
		}
		entries = append(entries, Entry{
			Name:    name,
			Path:    path.Join(dir, name),
			Size:    int64(item.Size),
			ModTime: item.Time,
			IsDir:   item.Type == ftp.EntryTypeFolder,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *conn) Retrieve(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.server.Retr(remotePath)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", remotePath, err)
	}
	return resp, nil
}

func (c *conn) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.server.Delete(remotePath); err != nil {
		return fmt.Errorf("delete %s: %w", remotePath, err)
	}
	return nil
}

func (c *conn) Close() error {
	return c.server.Quit()
}

var _ Dialer = (*ServerDialer)(nil)
var _ Conn = (*conn)(nil)
