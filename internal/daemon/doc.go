// Package daemon coordinates the long-running bridge process.
//
// It wires configuration, queue storage, the remote poller, and the workflow
// manager into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers and
// dependency health summaries for the CLI.
//
// Keep orchestration logic here: individual pipeline steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
