// Package poller discovers newly arrived media files on the remote FTP
// server and enqueues them for the bridge pipeline. Discovery is stateless
// across restarts; the queue's identity index keeps rediscovered files from
// being processed twice.
package poller
