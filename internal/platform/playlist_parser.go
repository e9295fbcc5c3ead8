package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/model"
)

// DefaultResolveTimeout bounds one playlist lookup
const DefaultResolveTimeout = 30 * time.Second

// URL parameters
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

var (
	// ErrNotPlaylist is returned for URLs without a playlist parameter
	ErrNotPlaylist = errors.New("URL does not contain playlist parameter")

	// ErrEmptyPlaylistID is returned when the playlist parameter is empty
	ErrEmptyPlaylistID = errors.New("empty playlist ID")
)

// PlaylistResolver resolves playlist URLs to their ordered items. It is
// used to report item index and count during collection downloads.
type PlaylistResolver struct {
	timeout time.Duration
	lister  ItemLister
	logger  zerolog.Logger
}

// NewPlaylistResolver creates a resolver backed by the ytdlp library
func NewPlaylistResolver(logger zerolog.Logger) *PlaylistResolver {
	return &PlaylistResolver{
		timeout: DefaultResolveTimeout,
		lister:  LibraryLister{},
		logger:  logger.With().Str("component", "playlist").Logger(),
	}
}

// SetTimeout sets the timeout for one lookup
func (p *PlaylistResolver) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// SetLister replaces the item source
func (p *PlaylistResolver) SetLister(l ItemLister) {
	p.lister = l
}

// Resolve returns the playlist for url.
func (p *PlaylistResolver) Resolve(ctx context.Context, url string) (*model.Playlist, error) {
	playlistID, err := ExtractPlaylistID(url)
	if err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	items, err := p.lister.ListItems(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("resolve playlist %s: %w", playlistID, err)
	}

	playlist := model.NewPlaylist(playlistID, url)
	for _, item := range items {
		playlist.AddItem(item)
	}
	playlist.Title = playlistTitle(items)

	p.logger.Debug().
		Str("playlist_id", playlistID).
		Int("items", playlist.Len()).
		Msg("playlist resolved")

	return playlist, nil
}

// IsPlaylistURL reports whether the URL carries a playlist parameter
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistURLParam)
}

// ExtractPlaylistID extracts the playlist ID from a URL. Supported forms:
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&start_radio=1
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
func ExtractPlaylistID(url string) (string, error) {
	if !IsPlaylistURL(url) {
		return "", ErrNotPlaylist
	}

	_, playlistID, _ := strings.Cut(url, PlaylistURLParam)
	playlistID, _, _ = strings.Cut(playlistID, PlaylistParamSeparator)
	playlistID = strings.TrimSpace(playlistID)

	if playlistID == "" {
		return "", ErrEmptyPlaylistID
	}
	return playlistID, nil
}
