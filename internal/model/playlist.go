package model

import (
	"time"
)

// PlaylistItem is one resource of a resolved collection
type PlaylistItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Index int    `json:"index"` // 1-based position in the collection
}

// Playlist is an ordered collection resolved from a playlist URL
type Playlist struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Items      []*PlaylistItem `json:"items"`
	ResolvedAt time.Time       `json:"resolved_at"`

	byID map[string]int
}

// NewPlaylist creates an empty playlist for the URL
func NewPlaylist(id, url string) *Playlist {
	return &Playlist{
		ID:         id,
		URL:        url,
		Items:      make([]*PlaylistItem, 0),
		ResolvedAt: time.Now(),
		byID:       make(map[string]int),
	}
}

// AddItem appends an item and assigns its 1-based index
func (p *Playlist) AddItem(item *PlaylistItem) {
	if p.byID == nil {
		p.byID = make(map[string]int)
	}
	item.Index = len(p.Items) + 1
	p.Items = append(p.Items, item)
	if _, exists := p.byID[item.ID]; !exists && item.ID != "" {
		p.byID[item.ID] = item.Index
	}
}

// Len returns the number of items
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// IndexOf returns the 1-based index of the item with the given id, or 0
func (p *Playlist) IndexOf(itemID string) int {
	if p == nil || itemID == "" {
		return 0
	}
	return p.byID[itemID]
}
