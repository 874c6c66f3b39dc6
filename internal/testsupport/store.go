package testsupport

import (
	"context"
	"testing"
	"time"

	"ftpgram/internal/config"
	"ftpgram/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// EnqueueRemote records a remote file arrival for tests using the provided store.
func EnqueueRemote(t testing.TB, store *queue.Store, remotePath string, size int64, modTime time.Time) *queue.Item {
	t.Helper()

	item, _, err := store.Enqueue(context.Background(), remotePath, size, modTime)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
