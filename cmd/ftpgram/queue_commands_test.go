package main

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"ftpgram/internal/queue"
	"ftpgram/internal/testsupport"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.EnqueueRemote(t, env.store, "/20260101/record/alpha.mp4", 512, time.Now().Add(-2*time.Hour))

	beta := testsupport.EnqueueRemote(t, env.store, "/20260101/record/beta.265", 1024, time.Now().Add(-time.Hour))
	beta.SetFailed("download failed")
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("mark beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "alpha.mp4")
	requireContains(t, out, "beta.265")
	requireContains(t, out, "download failed")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status failed: %v", err)
	}
	requireContains(t, out, "beta.265")
	if strings.Contains(out, "alpha.mp4") {
		t.Fatalf("filtered list should omit pending item: %q", out)
	}

	if _, _, err := runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item := testsupport.EnqueueRemote(t, env.store, "/stale.mp4", 64, time.Now())

	out, _, err := runCLI(t, []string{"queue", "remove", "9999"}, env.configPath)
	if err == nil {
		t.Fatalf("expected error removing unknown id, got output %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "remove", strconv.FormatInt(item.ID, 10)}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed item")

	gone, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Fatalf("item %d should be gone after remove", item.ID)
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item := testsupport.EnqueueRemote(t, env.store, "/broken.mp4", 64, time.Now())
	item.SetFailed("publish failed")
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Queued 1 items for retry")

	updated, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("status = %s, want %s", updated.Status, queue.StatusPending)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 items")
}

func TestQueueHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Queue Database")
	requireContains(t, out, "Integrity check")
}
