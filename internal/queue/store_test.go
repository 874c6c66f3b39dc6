package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ftpgram/internal/queue"
	"ftpgram/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	mtime := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	item, inserted, err := store.Enqueue(ctx, "/video/20260314/record/clip001.265", 2048, mtime)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected first enqueue to insert")
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.RemotePath != "/video/20260314/record/clip001.265" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if !fetched.RemoteModTime.Equal(mtime) {
		t.Fatalf("expected mtime %v, got %v", mtime, fetched.RemoteModTime)
	}

	found, err := store.GetByIdentity(ctx, "/video/20260314/record/clip001.265", 2048, mtime)
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestEnqueueDeduplicatesIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	mtime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	first, inserted, err := store.Enqueue(ctx, "/video/20260314/record/clip002.mp4", 4096, mtime)
	if err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if !inserted {
		t.Fatal("expected first enqueue to insert")
	}

	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again, inserted, err := store.Enqueue(ctx, "/video/20260314/record/clip002.mp4", 4096, mtime)
	if err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}
	if inserted {
		t.Fatal("expected second enqueue to be a no-op")
	}
	if again.ID != first.ID {
		t.Fatalf("expected same item, got IDs %d and %d", first.ID, again.ID)
	}
	if again.Status != queue.StatusCompleted {
		t.Fatalf("expected existing status preserved, got %s", again.Status)
	}

	// A changed size is a new identity.
	other, inserted, err := store.Enqueue(ctx, "/video/20260314/record/clip002.mp4", 8192, mtime)
	if err != nil {
		t.Fatalf("third Enqueue: %v", err)
	}
	if !inserted || other.ID == first.ID {
		t.Fatalf("expected new item for changed size, inserted=%v id=%d", inserted, other.ID)
	}
}

func TestClaimTransitionsAtomically(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.EnqueueRemote(t, store, "/video/clip.mp4", 100, time.Now().UTC())

	ok, err := store.Claim(ctx, item.ID, queue.StatusPending, queue.StatusDownloading)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !ok {
		t.Fatal("expected first claim to win")
	}

	again, err := store.Claim(ctx, item.ID, queue.StatusPending, queue.StatusDownloading)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if again {
		t.Fatal("expected second claim to lose")
	}

	claimed, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if claimed.Status != queue.StatusDownloading {
		t.Fatalf("expected downloading, got %s", claimed.Status)
	}
	if claimed.LastHeartbeat == nil {
		t.Fatal("expected claim to stamp heartbeat")
	}
}

func TestNextForStatusesOrdersByArrival(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	newer := testsupport.EnqueueRemote(t, store, "/video/newer.mp4", 10, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	older := testsupport.EnqueueRemote(t, store, "/video/older.mp4", 10, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	_ = newer

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != older.ID {
		t.Fatalf("expected oldest arrival first, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusEncoded)
	if err != nil {
		t.Fatalf("NextForStatuses empty: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty status, got %#v", none)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []queue.Status{
		queue.StatusDownloading,
		queue.StatusEncoding,
		queue.StatusPublishing,
		queue.StatusFinalizing,
	}
	var ids []int64
	for i, status := range statuses {
		item := testsupport.EnqueueRemote(t, store, fmt.Sprintf("/video/stuck-%d.mp4", i), int64(i+1), time.Now().UTC())
		item.Status = status
		now := time.Now().UTC()
		item.LastHeartbeat = &now
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(statuses) {
		t.Fatalf("expected %d items reset, got %d", len(statuses), count)
	}

	for idx := range statuses {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending after reset, got %s", updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatal("expected heartbeat cleared")
		}
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	a := testsupport.EnqueueRemote(t, store, "/video/a.mp4", 1, base)
	b := testsupport.EnqueueRemote(t, store, "/video/b.mp4", 1, base.Add(time.Minute))
	c := testsupport.EnqueueRemote(t, store, "/video/c.mp4", 1, base.Add(2*time.Minute))

	b.Status = queue.StatusPublished
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c.Status = queue.StatusFailed
	c.ErrorMessage = "boom"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected arrival order, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusPublished, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestRetryFailedResetsAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.EnqueueRemote(t, store, "/video/fail-a.mp4", 1, time.Now().UTC())
	b := testsupport.EnqueueRemote(t, store, "/video/fail-b.mp4", 2, time.Now().UTC())
	for _, item := range []*queue.Item{a, b} {
		item.SetFailed("boom")
		item.Attempts = 3
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 items retried, got %d", updated)
	}

	item, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected item A pending, got %s", item.Status)
	}
	if item.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %d", item.Attempts)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", item.ErrorMessage)
	}

	// Mark B failed again and retry targeted selection.
	b.SetFailed("boom again")
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.EnqueueRemote(t, store, "/video/hb.mp4", 1, time.Now().UTC())
	item.Status = queue.StatusDownloading
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected last heartbeat to be set")
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	past := time.Now().Add(-2 * time.Hour).UTC()

	stale := testsupport.EnqueueRemote(t, store, "/video/stale.mp4", 1, time.Now().UTC())
	stale.Status = queue.StatusEncoding
	stale.LastHeartbeat = &past
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update stale: %v", err)
	}

	fresh := testsupport.EnqueueRemote(t, store, "/video/fresh.mp4", 2, time.Now().UTC())
	fresh.Status = queue.StatusPublishing
	now := time.Now().UTC()
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update fresh: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 item reclaimed, got %d", count)
	}

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID stale: %v", err)
	}
	if reclaimed.Status != queue.StatusPending {
		t.Fatalf("expected stale item reclaimed to pending, got %s", reclaimed.Status)
	}
	if reclaimed.LastHeartbeat != nil {
		t.Fatalf("expected heartbeat cleared, got %v", reclaimed.LastHeartbeat)
	}

	unchanged, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID fresh: %v", err)
	}
	if unchanged.Status != queue.StatusPublishing {
		t.Fatalf("expected fresh item untouched, got %s", unchanged.Status)
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	done := testsupport.EnqueueRemote(t, store, "/video/done.mp4", 1, time.Now().UTC())
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}
	failed := testsupport.EnqueueRemote(t, store, "/video/failed.mp4", 2, time.Now().UTC())
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	testsupport.EnqueueRemote(t, store, "/video/waiting.mp4", 3, time.Now().UTC())

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 completed removed, got %d", removed)
	}

	removed, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 failed removed, got %d", removed)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining removed, got %d", removed)
	}
}

func TestHealthSummaryCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.EnqueueRemote(t, store, "/video/p1.mp4", 1, time.Now().UTC())
	working := testsupport.EnqueueRemote(t, store, "/video/w1.mp4", 2, time.Now().UTC())
	working.Status = queue.StatusDownloading
	if err := store.Update(ctx, working); err != nil {
		t.Fatalf("Update: %v", err)
	}
	failed := testsupport.EnqueueRemote(t, store, "/video/f1.mp4", 3, time.Now().UTC())
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}
}
