// Package workflow advances queue items through the configured bridge
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (downloader, normalizer, publisher,
// finalizer) while capturing failure metadata. Transient failures send the
// item back to the stage entry status for another attempt; exhausted or
// permanent failures mark it failed and raise a notification.
//
// Several workers may run concurrently. Each claims an item with an atomic
// status transition, so a file that is still downloading on one worker is
// invisible to the others.
package workflow
