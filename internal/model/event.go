package model

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// Placeholders shown while a counter is inactive or unknown
const (
	NotAvailable = "N/A"
	ETAUnknown   = time.Duration(-1)
)

// Event is an immutable snapshot of a transfer's state, emitted to observers.
type Event struct {
	Phase      Phase
	Downloaded int64         // bytes of the current item
	Total      int64         // total or estimated bytes of the current item, 0 if unknown
	Percent    float64       // 0 to 100
	Speed      float64       // bytes per second, 0 if inactive
	ETA        time.Duration // ETAUnknown if unknown or inactive
	ItemIndex  int           // 1-based index within a collection, 0 if unknown
	ItemCount  int           // size of the collection, 0 if unknown
	Title      string
	Status     string // human readable status line
	Err        error  // set on PhaseFailed only
	At         time.Time
}

// IsTerminal reports whether this is the last event of its transfer.
func (e Event) IsTerminal() bool {
	return e.Phase.IsTerminal()
}

// PercentInt returns the completion percentage truncated to 0..100.
func (e Event) PercentInt() int {
	switch {
	case e.Percent <= 0:
		return 0
	case e.Percent >= 100:
		return 100
	default:
		return int(e.Percent)
	}
}

// SpeedString returns a human readable rate such as "1.5MB/s", or N/A.
func (e Event) SpeedString() string {
	if e.Speed <= 0 {
		return NotAvailable
	}
	return units.HumanSize(e.Speed) + "/s"
}

// ETAString returns the remaining time as "Xm Ys" or "Ys", or N/A if unknown.
func (e Event) ETAString() string {
	if e.ETA < 0 {
		return NotAvailable
	}
	secs := int(e.ETA.Seconds())
	minutes, sec := secs/60, secs%60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// SizeString returns "downloaded / total" in human readable units.
func (e Event) SizeString() string {
	if e.Total <= 0 {
		if e.Downloaded <= 0 {
			return NotAvailable
		}
		return units.HumanSize(float64(e.Downloaded))
	}
	return units.HumanSize(float64(e.Downloaded)) + " / " + units.HumanSize(float64(e.Total))
}

// ItemString returns "i/n" for collection transfers with known counters.
func (e Event) ItemString() string {
	if e.ItemIndex <= 0 || e.ItemCount <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", e.ItemIndex, e.ItemCount)
}

// Message returns the error text of a failed event, or the status line.
func (e Event) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Status
}
