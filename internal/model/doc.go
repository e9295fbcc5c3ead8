// Package model defines the domain values shared across the app: transfer
// requests, lifecycle phases, progress events, download task views and
// resolved playlists. Requests and events are plain values so they can be
// copied between goroutines without synchronization.
package model
