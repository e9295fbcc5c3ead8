package config

import (
	"strings"

	"github.com/ytget/ytgrab/internal/model"
)

// DefaultQuality is the quality preselected in the UI and CLI
const DefaultQuality = "1080p"

// QualityBest names the unbounded quality
const QualityBest = "best"

// QualityOption is one named resolution ceiling
type QualityOption struct {
	Name   string
	Height model.Quality
}

// QualityTable maps quality names to resolution ceilings. It is read-only;
// use Qualities to get the shared table.
type QualityTable struct {
	options []QualityOption
	byName  map[string]model.Quality
}

var qualities = newQualityTable([]QualityOption{
	{Name: "8k", Height: 4320},
	{Name: "4k", Height: 2160},
	{Name: "1440p", Height: 1440},
	{Name: "1080p", Height: 1080},
	{Name: "720p", Height: 720},
	{Name: "480p", Height: 480},
	{Name: "360p", Height: 360},
	{Name: "240p", Height: 240},
	{Name: "144p", Height: 144},
	{Name: QualityBest, Height: model.QualityUnbounded},
})

func newQualityTable(options []QualityOption) QualityTable {
	t := QualityTable{
		options: options,
		byName:  make(map[string]model.Quality, len(options)),
	}
	for _, o := range options {
		t.byName[strings.ToLower(o.Name)] = o.Height
	}
	return t
}

// Qualities returns the quality table
func Qualities() QualityTable {
	return qualities
}

// Lookup returns the ceiling for a quality name, case-insensitively
func (t QualityTable) Lookup(name string) (model.Quality, bool) {
	q, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return q, ok
}

// Names returns the quality names from highest to lowest, then "best"
func (t QualityTable) Names() []string {
	names := make([]string, 0, len(t.options))
	for _, o := range t.options {
		names = append(names, o.Name)
	}
	return names
}
