package transfer

import (
	"fmt"
	"time"

	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/model"
)

// Status lines
const (
	StatusConnecting     = "Establishing connection..."
	StatusDownloading    = "Downloading..."
	StatusItemFormat     = "Downloading item %d/%d"
	StatusPostprocessing = "Post-processing..."
	StatusFinished       = "Download completed"
	StatusCancelled      = "Download cancelled"
	StatusMissingLocator = "missing locator"
)

// state is the mutable progress of one transfer, owned by its worker.
type state struct {
	multi bool // request covers a whole collection

	phase  model.Phase
	status string
	title  string

	itemID    string
	index     int
	count     int
	unindexed bool // current item has no known position

	// bytes of streams already finished within the current item
	baseDone  int64
	baseTotal int64

	downloaded int64
	total      int64
	speed      float64
	eta        time.Duration
}

func newState(req model.Request) *state {
	return &state{
		multi:  req.Playlist,
		phase:  model.PhaseIdle,
		status: StatusConnecting,
		eta:    model.ETAUnknown,
	}
}

// advance moves to p unless that would go back in the lifecycle
func (s *state) advance(p model.Phase) {
	if s.phase.Before(p) {
		s.phase = p
	}
}

// apply folds a chunk into the state and reports whether an event is due.
func (s *state) apply(c engine.Chunk) bool {
	if c.Title != "" {
		s.title = c.Title
	}
	s.trackItem(c)

	switch c.Status {
	case engine.ChunkConnecting:
		return false

	case engine.ChunkDownloading:
		if s.phase == model.PhasePostprocessing {
			return false
		}
		s.advance(model.PhaseDownloading)
		s.setBytes(s.baseDone+c.Downloaded, c.Total)
		s.speed = max(c.Speed, 0)
		s.eta = c.ETA
		if s.eta < 0 {
			s.eta = model.ETAUnknown
		}
		s.status = s.downloadingStatus()
		return true

	case engine.ChunkStreamFinished:
		if s.phase == model.PhasePostprocessing {
			return false
		}
		done := max(c.Downloaded, c.Total)
		s.setBytes(s.baseDone+done, c.Total)
		s.baseDone += done
		s.baseTotal += max(c.Total, done)
		return false

	case engine.ChunkPostprocessing:
		s.speed = 0
		s.eta = model.ETAUnknown
		s.status = StatusPostprocessing
		if s.isLastItem() {
			s.advance(model.PhasePostprocessing)
		} else {
			s.advance(model.PhaseDownloading)
		}
		return true
	}
	return false
}

// trackItem resets per-item counters when the engine moves to the next item.
// The index never goes down and the count never changes once known.
func (s *state) trackItem(c engine.Chunk) {
	if !s.multi {
		return
	}
	if s.count == 0 && c.ItemCount > 0 {
		s.count = c.ItemCount
	}

	next := false
	switch {
	case c.ItemIndex > 0 && s.count > 0:
		if c.ItemIndex > s.index && c.ItemIndex <= s.count {
			next = s.index > 0 || s.unindexed
			s.index = c.ItemIndex
			s.unindexed = false
		}
	case c.ItemID != "" && s.itemID != "" && c.ItemID != s.itemID:
		next = true
		// a new item the engine could not place keeps no stale position
		s.unindexed = s.index > 0
	}
	if c.ItemID != "" {
		s.itemID = c.ItemID
	}
	if next {
		s.baseDone, s.baseTotal = 0, 0
		s.downloaded, s.total = 0, 0
	}
}

// setBytes updates byte counters without letting them go down within an item
func (s *state) setBytes(downloaded, streamTotal int64) {
	if downloaded > s.downloaded {
		s.downloaded = downloaded
	}
	if streamTotal > 0 {
		s.total = s.baseTotal + streamTotal
	}
	if s.total > 0 && s.total < s.downloaded {
		s.total = s.downloaded
	}
}

func (s *state) isLastItem() bool {
	if !s.multi {
		return true
	}
	return !s.unindexed && s.count > 0 && s.index == s.count
}

func (s *state) downloadingStatus() string {
	if s.multi && !s.unindexed && s.index > 0 && s.count > 0 {
		return fmt.Sprintf(StatusItemFormat, s.index, s.count)
	}
	return StatusDownloading
}

func (s *state) percent() float64 {
	if s.total <= 0 {
		return 0
	}
	p := float64(s.downloaded) / float64(s.total) * 100
	return min(p, 100)
}

// event snapshots the state
func (s *state) event(at time.Time) model.Event {
	ev := model.Event{
		Phase:      s.phase,
		Downloaded: s.downloaded,
		Total:      s.total,
		Percent:    s.percent(),
		Speed:      s.speed,
		ETA:        s.eta,
		Title:      s.title,
		Status:     s.status,
		At:         at,
	}
	if s.multi {
		ev.ItemIndex = s.index
		ev.ItemCount = s.count
		if s.unindexed {
			ev.ItemIndex = 0
		}
	}
	return ev
}

// finished returns the success event: bytes kept, rate and ETA inactive
func (s *state) finished(at time.Time) model.Event {
	s.phase = model.PhaseFinished
	s.status = StatusFinished
	s.speed = 0
	s.eta = model.ETAUnknown
	if s.total < s.downloaded {
		s.total = s.downloaded
	}
	ev := s.event(at)
	ev.Percent = 100
	return ev
}

// cancelled returns the cancellation event with every counter zeroed
func (s *state) cancelled(at time.Time) model.Event {
	s.phase = model.PhaseCancelled
	s.status = StatusCancelled
	return model.Event{
		Phase:  model.PhaseCancelled,
		ETA:    model.ETAUnknown,
		Title:  s.title,
		Status: StatusCancelled,
		At:     at,
	}
}

// failed returns the failure event carrying the engine message
func (s *state) failed(err *EngineError, at time.Time) model.Event {
	s.phase = model.PhaseFailed
	s.status = err.Message
	s.speed = 0
	s.eta = model.ETAUnknown
	ev := s.event(at)
	ev.Err = err
	return ev
}
