package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a bridge item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusEncoding    Status = "encoding"
	StatusEncoded     Status = "encoded"
	StatusPublishing  Status = "publishing"
	StatusPublished   Status = "published"
	StatusFinalizing  Status = "finalizing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusEncoding,
	StatusEncoded,
	StatusPublishing,
	StatusPublished,
	StatusFinalizing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusEncoding:    {},
	StatusPublishing:  {},
	StatusFinalizing:  {},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// Item represents a remote file tracked through the bridge pipeline.
//
// RemotePath, RemoteSize and RemoteModTime together form the file identity;
// a given identity is inserted at most once for the lifetime of the store.
type Item struct {
	ID            int64
	RemotePath    string
	RemoteSize    int64
	RemoteModTime time.Time
	Status        Status
	LocalPath     string
	PublishPath   string
	MessageID     int64
	ErrorMessage  string
	Attempts      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ProcessingStatuses returns the statuses that indicate in-flight work.
func ProcessingStatuses() []Status {
	return []Status{StatusDownloading, StatusEncoding, StatusPublishing, StatusFinalizing}
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether an item can no longer make progress.
func (i Item) IsTerminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusFailed
}

// SetFailed marks the item as failed with the given error message and
// clears the heartbeat so reclaim sweeps ignore it.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.LastHeartbeat = nil
}

// RemoteBase returns the file name component of the remote path.
func (i Item) RemoteBase() string {
	path := strings.TrimRight(i.RemotePath, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
