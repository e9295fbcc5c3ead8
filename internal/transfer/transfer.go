package transfer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/model"
)

// EventFunc receives progress events of one transfer
type EventFunc func(model.Event)

// Transfer runs one download against an engine.
type Transfer struct {
	eng    engine.Engine
	logger zerolog.Logger
	now    func() time.Time

	cancelled atomic.Bool // only ever goes false -> true
	done      atomic.Bool // terminal event delivered

	mu      sync.Mutex
	started bool
	phase   model.Phase
	doneCh  chan struct{}
	cancel  context.CancelCauseFunc
}

// Option configures a Transfer
type Option func(*Transfer)

// WithLogger sets the transfer logger
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transfer) { t.logger = l }
}

// WithClock sets the time source used for event timestamps
func WithClock(now func() time.Time) Option {
	return func(t *Transfer) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates an idle transfer using eng.
func New(eng engine.Engine, opts ...Option) *Transfer {
	t := &Transfer{
		eng:    eng,
		logger: zerolog.Nop(),
		now:    time.Now,
		phase:  model.PhaseIdle,
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins the transfer and returns immediately. All outcomes, including
// a malformed request, are reported through onEvent; Start never blocks on
// the network and never panics into the caller.
//
// A request without a URL is reported synchronously as a Failed event on the
// caller's goroutine and no worker is started. Cancelling ctx has the same
// effect as RequestCancel.
func (t *Transfer) Start(ctx context.Context, req model.Request, onEvent EventFunc) {
	if onEvent == nil {
		onEvent = func(model.Event) {}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		onEvent(model.Event{
			Phase:  model.PhaseFailed,
			ETA:    model.ETAUnknown,
			Status: ErrAlreadyStarted.Error(),
			Err:    ErrAlreadyStarted,
			At:     t.now(),
		})
		return
	}
	t.started = true

	if !req.HasLocator() {
		t.phase = model.PhaseFailed
		t.mu.Unlock()
		t.logger.Warn().Msg("transfer rejected: missing locator")
		t.deliverTerminal(onEvent, model.Event{
			Phase:  model.PhaseFailed,
			ETA:    model.ETAUnknown,
			Status: StatusMissingLocator,
			Err:    ErrMissingLocator,
			At:     t.now(),
		})
		close(t.doneCh)
		return
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	t.cancel = cancel
	doneCh := t.doneCh
	t.mu.Unlock()

	if t.cancelled.Load() {
		cancel(ErrCancelRequested)
	}

	go func() {
		defer close(doneCh)
		defer cancel(nil)
		t.run(runCtx, req.WithDefaults(), onEvent)
	}()
}

// RequestCancel asks the running transfer to stop. It is safe to call from
// any goroutine, any number of times, and has no effect once the transfer
// has ended.
func (t *Transfer) RequestCancel() {
	if t.done.Load() {
		return
	}
	if t.cancelled.CompareAndSwap(false, true) {
		t.logger.Debug().Msg("cancellation requested")
	}
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel(ErrCancelRequested)
	}
}

// Phase returns the phase of the last emitted event.
func (t *Transfer) Phase() model.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Done is closed once the terminal event has been delivered.
func (t *Transfer) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneCh
}

// Reset returns an ended transfer to Idle so it can be started again with a
// fresh state. It fails while a worker is running.
func (t *Transfer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		select {
		case <-t.doneCh:
		default:
			return ErrTransferActive
		}
	}

	t.started = false
	t.phase = model.PhaseIdle
	t.cancel = nil
	t.doneCh = make(chan struct{})
	t.cancelled.Store(false)
	t.done.Store(false)
	return nil
}

// run is the worker body
func (t *Transfer) run(ctx context.Context, req model.Request, onEvent EventFunc) {
	var mu sync.Mutex // serializes engine callbacks with the terminal event
	st := newState(req)
	url := req.Locator()
	log := t.logger.With().Str("url", url).Logger()

	emit := func() {
		if t.done.Load() {
			return
		}
		t.setPhase(st.phase)
		onEvent(st.event(t.now()))
	}

	mu.Lock()
	st.advance(model.PhaseConnecting)
	log.Debug().Str("phase", st.phase.String()).Msg("transfer started")
	emit()
	mu.Unlock()

	if t.cancelRequested(ctx) {
		t.finish(ctx, &mu, st, onEvent, nil, log)
		return
	}

	opts := engine.OptionsFor(req, func(c engine.Chunk) error {
		if t.cancelRequested(ctx) || t.done.Load() {
			return engine.ErrAbort
		}
		mu.Lock()
		defer mu.Unlock()
		before := st.phase
		if st.apply(c) {
			if st.phase != before {
				log.Debug().Str("from", before.String()).Str("to", st.phase.String()).Msg("phase changed")
			}
			emit()
		}
		return nil
	})

	err := t.eng.Download(ctx, url, opts)
	t.finish(ctx, &mu, st, onEvent, err, log)
}

// finish delivers the terminal event for the engine outcome
func (t *Transfer) finish(ctx context.Context, mu *sync.Mutex, st *state, onEvent EventFunc, err error, log zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()

	var ev model.Event
	switch {
	case t.cancelRequested(ctx) || engine.IsAbort(err):
		ev = st.cancelled(t.now())
		log.Info().Msg("transfer cancelled")
	case err != nil:
		ee := NewEngineError(err)
		ev = st.failed(ee, t.now())
		log.Warn().Err(err).Msg("transfer failed")
	default:
		ev = st.finished(t.now())
		log.Info().Int64("bytes", ev.Downloaded).Msg("transfer finished")
	}
	t.deliverTerminal(onEvent, ev)
}

// deliverTerminal sends the one terminal event of this transfer
func (t *Transfer) deliverTerminal(onEvent EventFunc, ev model.Event) {
	if !t.done.CompareAndSwap(false, true) {
		return
	}
	t.setPhase(ev.Phase)
	onEvent(ev)
}

// cancelRequested reports whether the flag is set or the caller's context ended
func (t *Transfer) cancelRequested(ctx context.Context) bool {
	if t.cancelled.Load() {
		return true
	}
	if ctx.Err() != nil {
		t.cancelled.Store(true)
		return true
	}
	return false
}

func (t *Transfer) setPhase(p model.Phase) {
	t.mu.Lock()
	t.phase = p
	t.mu.Unlock()
}
