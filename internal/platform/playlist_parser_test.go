package platform

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/model"
)

type fakeLister struct {
	items    []*model.PlaylistItem
	err      error
	gotID    string
	deadline bool
}

func (f *fakeLister) ListItems(ctx context.Context, playlistID string) ([]*model.PlaylistItem, error) {
	f.gotID = playlistID
	_, f.deadline = ctx.Deadline()
	return f.items, f.err
}

func TestNewPlaylistResolver(t *testing.T) {
	r := NewPlaylistResolver(zerolog.Nop())
	if r == nil {
		t.Fatal("resolver should not be nil")
	}
	if r.timeout != DefaultResolveTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultResolveTimeout, r.timeout)
	}
	r.SetTimeout(time.Minute)
	if r.timeout != time.Minute {
		t.Errorf("expected timeout %v, got %v", time.Minute, r.timeout)
	}
}

func TestIsPlaylistURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"watch with list", "https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID", true},
		{"playlist page", "https://www.youtube.com/playlist?list=PLAYLIST_ID", true},
		{"single video", "https://www.youtube.com/watch?v=VIDEO_ID", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaylistURL(tt.url); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{"playlist page", "https://www.youtube.com/playlist?list=PL123", "PL123", nil},
		{"watch with extra params", "https://www.youtube.com/watch?v=abc&list=PL456&start_radio=1", "PL456", nil},
		{"no list param", "https://www.youtube.com/watch?v=abc", "", ErrNotPlaylist},
		{"empty list param", "https://www.youtube.com/playlist?list=&x=1", "", ErrEmptyPlaylistID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPlaylistID(tt.url)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	lister := &fakeLister{items: []*model.PlaylistItem{
		{ID: "a", Title: "Go Conference 2024 - Day 1"},
		{ID: "b", Title: "Go Conference 2024 - Day 2"},
		{ID: "c", Title: "Closing"},
	}}
	r := NewPlaylistResolver(zerolog.Nop())
	r.SetLister(lister)

	pl, err := r.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.gotID != "PLX" {
		t.Errorf("expected id PLX, got %q", lister.gotID)
	}
	if !lister.deadline {
		t.Error("expected lookup context to carry a deadline")
	}
	if pl.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", pl.Len())
	}
	if idx := pl.IndexOf("c"); idx != 3 {
		t.Errorf("expected index 3 for c, got %d", idx)
	}
	if pl.Title != "Go Conference 2024 - Day Playlist" {
		t.Errorf("unexpected title %q", pl.Title)
	}
}

func TestResolve_Errors(t *testing.T) {
	r := NewPlaylistResolver(zerolog.Nop())
	r.SetLister(&fakeLister{err: errors.New("network down")})

	if _, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc"); !errors.Is(err, ErrNotPlaylist) {
		t.Errorf("expected ErrNotPlaylist, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), "https://www.youtube.com/playlist?list=PL1"); err == nil {
		t.Error("expected lister error to be returned")
	}
}

func TestPlaylistTitle(t *testing.T) {
	tests := []struct {
		name  string
		items []*model.PlaylistItem
		want  string
	}{
		{"empty", nil, DefaultPlaylistName},
		{"single", []*model.PlaylistItem{{Title: "Solo"}}, "Solo" + PlaylistSuffix},
		{"short prefix", []*model.PlaylistItem{{Title: "Intro"}, {Title: "Index"}}, "Intro" + PlaylistSuffix},
		{"long prefix", []*model.PlaylistItem{{Title: "Learning Go Part 1"}, {Title: "Learning Go Part 2"}}, "Learning Go Part" + PlaylistSuffix},
		{"cyrillic prefix", []*model.PlaylistItem{{Title: "Уроки Go часть 1"}, {Title: "Уроки Go часть 2"}}, "Уроки Go часть" + PlaylistSuffix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := playlistTitle(tt.items); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFindCommonPrefix(t *testing.T) {
	tests := []struct{ a, b, want string }{
		{"abc", "abd", "ab"},
		{"abc", "abc", "abc"},
		{"", "abc", ""},
		{"xyz", "abc", ""},
		{"abc", "ab", "ab"},
		{"Привет мир", "Привет всем", "Привет "},
		{"日本語", "日本人", "日本"},
		{"é", "è", ""},
	}
	for _, tt := range tests {
		got := findCommonPrefix(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("findCommonPrefix(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("findCommonPrefix(%q, %q) split a rune: %q", tt.a, tt.b, got)
		}
	}
}
