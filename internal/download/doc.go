// Package download is the caller side of the transfer package: it queues
// requests, runs up to a configured number of transfers in parallel, retries
// network failures with backoff and records outcomes in history and metrics.
package download
