package model

// Phase is the lifecycle phase of a single transfer.
type Phase string

const (
	// PhaseIdle is the phase before the transfer was started
	PhaseIdle Phase = "Idle"

	// PhaseConnecting covers resolving the source and initiating the exchange
	PhaseConnecting Phase = "Connecting"

	// PhaseDownloading is entered on the first byte-progress report
	PhaseDownloading Phase = "Downloading"

	// PhasePostprocessing covers muxing/conversion after the last item was fetched
	PhasePostprocessing Phase = "Postprocessing"

	// PhaseFinished means the transfer completed successfully
	PhaseFinished Phase = "Finished"

	// PhaseCancelled means the transfer was stopped on request
	PhaseCancelled Phase = "Cancelled"

	// PhaseFailed means the request was invalid or the engine reported an error
	PhaseFailed Phase = "Failed"
)

// phaseOrder ranks phases; events of one transfer never go down in rank.
var phaseOrder = map[Phase]int{
	PhaseIdle:           0,
	PhaseConnecting:     1,
	PhaseDownloading:    2,
	PhasePostprocessing: 3,
	PhaseFinished:       4,
	PhaseCancelled:      4,
	PhaseFailed:         4,
}

// String returns the string representation of Phase
func (p Phase) String() string {
	return string(p)
}

// IsActive returns true while a worker is running the transfer
func (p Phase) IsActive() bool {
	return p == PhaseConnecting || p == PhaseDownloading || p == PhasePostprocessing
}

// IsTerminal returns true if the transfer ended (finished, cancelled or failed)
func (p Phase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseCancelled || p == PhaseFailed
}

// Rank returns the position of the phase in the lifecycle.
func (p Phase) Rank() int {
	return phaseOrder[p]
}

// Before reports whether p comes strictly earlier in the lifecycle than other.
func (p Phase) Before(other Phase) bool {
	return p.Rank() < other.Rank()
}
