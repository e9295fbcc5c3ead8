package model

import (
	"fmt"
	"strings"
)

// Quality is a ceiling on the vertical resolution in pixels.
type Quality int

// QualityUnbounded means the best available resolution is accepted.
const QualityUnbounded Quality = 0

// Default request values
const (
	DefaultOutputTemplate = "%(title)s.%(ext)s"
	DefaultMergeFormat    = "mp4"
)

// IsBounded reports whether the quality limits the resolution.
func (q Quality) IsBounded() bool {
	return q > QualityUnbounded
}

// String returns "best" for unbounded quality and "<height>p" otherwise
func (q Quality) String() string {
	if !q.IsBounded() {
		return "best"
	}
	return fmt.Sprintf("%dp", int(q))
}

// Request describes one user-initiated transfer. It is passed by value and
// never modified once a transfer has been started with it.
type Request struct {
	URL            string
	Quality        Quality
	Playlist       bool   // true: every item of the linked collection
	OutputTemplate string // engine naming template
	OutputDir      string
	MergeFormat    string // container for muxed streams
}

// Locator returns the trimmed source URL.
func (r Request) Locator() string {
	return strings.TrimSpace(r.URL)
}

// HasLocator reports whether the request names a source.
func (r Request) HasLocator() bool {
	return r.Locator() != ""
}

// WithDefaults returns a copy with empty naming fields filled in.
func (r Request) WithDefaults() Request {
	if r.OutputTemplate == "" {
		r.OutputTemplate = DefaultOutputTemplate
	}
	if r.MergeFormat == "" {
		r.MergeFormat = DefaultMergeFormat
	}
	return r
}
