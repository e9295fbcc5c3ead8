package platform

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/ytgrab/internal/model"
)

// URL templates
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title constants
const (
	DefaultPlaylistName = "Unknown Playlist"
	MinPrefixLength     = 10
	PlaylistSuffix      = " Playlist"
)

// ItemLister fetches the items of a playlist by its id
type ItemLister interface {
	ListItems(ctx context.Context, playlistID string) ([]*model.PlaylistItem, error)
}

// LibraryLister lists playlist items through the ytdlp library
type LibraryLister struct{}

// ListItems fetches every item of the playlist
func (LibraryLister) ListItems(ctx context.Context, playlistID string) ([]*model.PlaylistItem, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	out := make([]*model.PlaylistItem, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		out = append(out, &model.PlaylistItem{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(VideoURLTemplate, it.VideoID),
		})
	}
	return out, nil
}

// playlistTitle derives a title from the common prefix of the first items
func playlistTitle(items []*model.PlaylistItem) string {
	if len(items) == 0 {
		return DefaultPlaylistName
	}
	if len(items) > 1 {
		prefix := findCommonPrefix(items[0].Title, items[1].Title)
		if utf8.RuneCountInString(prefix) > MinPrefixLength {
			return strings.TrimSpace(prefix) + PlaylistSuffix
		}
	}
	return items[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings. It never
// splits a multi-byte rune.
func findCommonPrefix(s1, s2 string) string {
	for i := 0; i < len(s1); {
		_, n := utf8.DecodeRuneInString(s1[i:])
		if i+n > len(s2) || s1[i:i+n] != s2[i:i+n] {
			return s1[:i]
		}
		i += n
	}
	return s1
}
