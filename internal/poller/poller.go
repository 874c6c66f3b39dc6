package poller

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"time"

	"ftpgram/internal/config"
	"ftpgram/internal/logging"
	"ftpgram/internal/queue"
	"ftpgram/internal/services"
	"ftpgram/internal/services/remoteftp"
)

// Poller lists the watched directory tree and records new arrivals.
type Poller struct {
	cfg    *config.Config
	store  *queue.Store
	dialer remoteftp.Dialer
	logger *slog.Logger

	// lastSeen holds the size and modification time observed for each
	// candidate on the previous scan. A file is only enqueued once both
	// hold steady across two consecutive scans, so uploads still in
	// flight (including same-size rewrites) are left alone.
	lastSeen map[string]observation
}

type observation struct {
	size    int64
	modTime time.Time
}

// New constructs a poller using the server named in configuration.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Poller {
	return NewWithDialer(cfg, store, logger, remoteftp.NewServerDialer(cfg))
}

// NewWithDialer allows injecting the FTP dialer (used in tests).
func NewWithDialer(cfg *config.Config, store *queue.Store, logger *slog.Logger, dialer remoteftp.Dialer) *Poller {
	pollerLogger := logger
	if pollerLogger != nil {
		pollerLogger = pollerLogger.With(logging.String("component", "poller"))
	} else {
		pollerLogger = logging.NewNop()
	}
	return &Poller{
		cfg:      cfg,
		store:    store,
		dialer:   dialer,
		logger:   pollerLogger,
		lastSeen: make(map[string]observation),
	}
}

// Scan runs one discovery cycle and returns the number of items enqueued.
func (p *Poller) Scan(ctx context.Context) (int, error) {
	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrConnectivity, "poll", "dial", "cannot reach FTP server", err)
	}
	defer conn.Close()

	candidates, err := p.collect(ctx, conn)
	if err != nil {
		return 0, err
	}

	// Oldest arrivals first so the queue preserves capture order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ModTime.Equal(candidates[j].ModTime) {
			return candidates[i].Path < candidates[j].Path
		}
		return candidates[i].ModTime.Before(candidates[j].ModTime)
	})

	seen := make(map[string]observation, len(candidates))
	added := 0
	for _, entry := range candidates {
		current := observation{size: entry.Size, modTime: entry.ModTime}
		seen[entry.Path] = current

		previous, observed := p.lastSeen[entry.Path]
		if !observed || previous.size != current.size || !previous.modTime.Equal(current.modTime) {
			p.logger.Debug("deferring unstable file",
				logging.String(logging.FieldRemotePath, entry.Path),
				logging.Int64("size", entry.Size),
				logging.String("modified", entry.ModTime.UTC().Format(time.RFC3339)),
			)
			continue
		}

		item, inserted, err := p.store.Enqueue(ctx, entry.Path, entry.Size, entry.ModTime)
		if err != nil {
			return added, services.Wrap(services.ErrTransient, "poll", "enqueue", "cannot record arrival", err)
		}
		if !inserted {
			continue
		}
		added++
		p.logger.Info("discovered new file",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldRemotePath, entry.Path),
			logging.Int64("size", entry.Size),
			logging.String("modified", entry.ModTime.UTC().Format(time.RFC3339)),
		)
	}

	p.lastSeen = seen
	return added, nil
}

// collect walks the watch directory. Camera exports group recordings under
// day directories named YYYYMMDD with a record subdirectory; files sitting
// directly in the watch directory are accepted too.
func (p *Poller) collect(ctx context.Context, conn remoteftp.Conn) ([]remoteftp.Entry, error) {
	root := p.cfg.FTP.WatchDir
	entries, err := conn.List(ctx, root)
	if err != nil {
		return nil, services.Wrap(services.ErrConnectivity, "poll", "list", "cannot list watch directory", err)
	}

	var candidates []remoteftp.Entry
	for _, entry := range entries {
		if entry.IsDir {
			if !isDayDirectory(entry.Name) {
				continue
			}
			recordDir := path.Join(root, entry.Name)
			if sub := p.cfg.FTP.RecordSubdir; sub != "" {
				recordDir = path.Join(recordDir, sub)
			}
			dayEntries, err := conn.List(ctx, recordDir)
			if err != nil {
				// Day directories without the record subdir are normal
				// while the camera is still creating them.
				p.logger.Debug("skipping unreadable day directory",
					logging.String(logging.FieldRemotePath, recordDir),
					logging.Error(err),
				)
				continue
			}
			for _, dayEntry := range dayEntries {
				if !dayEntry.IsDir && p.cfg.AllowsExtension(dayEntry.Name) {
					candidates = append(candidates, dayEntry)
				}
			}
			continue
		}
		if p.cfg.AllowsExtension(entry.Name) {
			candidates = append(candidates, entry)
		}
	}
	return candidates, nil
}

// isDayDirectory matches the camera's YYYYMMDD export layout.
func isDayDirectory(name string) bool {
	if len(name) != 8 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := time.Parse("20060102", name)
	return err == nil
}
