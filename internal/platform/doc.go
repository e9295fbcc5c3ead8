// Package platform contains OS integration: filesystem helpers, revealing
// downloads in the file manager, cross-process URL locks and playlist
// resolution through the ytdlp library.
package platform
