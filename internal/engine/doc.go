// Package engine defines the boundary to the external transfer engine and
// provides an implementation on top of yt-dlp (via github.com/lrstanley/go-ytdlp).
// The engine only offers a per-chunk callback; a callback that returns an
// error makes the engine abort the running call.
package engine
