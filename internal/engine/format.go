package engine

import (
	"fmt"
	"path/filepath"

	"github.com/ytget/ytgrab/internal/model"
)

// Format selector templates understood by yt-dlp
const (
	formatUnbounded = "bestvideo+bestaudio/best"
	formatBounded   = "bestvideo[height<=%[1]d]+bestaudio/best[height<=%[1]d]"
)

// FormatSelector returns the format expression bounding the resolution.
func FormatSelector(q model.Quality) string {
	if !q.IsBounded() {
		return formatUnbounded
	}
	return fmt.Sprintf(formatBounded, int(q))
}

// OptionsFor builds engine options from a request.
func OptionsFor(req model.Request, onChunk ChunkFunc) Options {
	req = req.WithDefaults()
	return Options{
		Format:         FormatSelector(req.Quality),
		OutputTemplate: OutputPath(req.OutputDir, req.OutputTemplate),
		MergeFormat:    req.MergeFormat,
		SingleItem:     !req.Playlist,
		OnChunk:        onChunk,
	}
}

// OutputPath joins the output directory and the naming template.
func OutputPath(dir, template string) string {
	if template == "" {
		template = model.DefaultOutputTemplate
	}
	if dir == "" {
		return template
	}
	return filepath.Join(dir, template)
}
