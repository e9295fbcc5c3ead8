package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/history"
	"github.com/ytget/ytgrab/internal/metrics"
	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
	"github.com/ytget/ytgrab/internal/transfer"
)

// Service errors
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskNotActive = errors.New("task is not active")
	ErrTaskActive    = errors.New("task is still active")
	ErrDuplicateURL  = errors.New("task already exists for URL")
	ErrServiceClosed = errors.New("download service is shut down")
)

// Task status lines set by the service
const (
	StatusQueued   = "Queued"
	StatusRetrying = "Retrying in %s (attempt %d of %d)"
)

// task is the service-side record of one download
type task struct {
	view     *model.DownloadTask
	transfer *transfer.Transfer
	lock     *platform.URLLock
	timer    *time.Timer // pending retry
	queued   bool
	running  bool
	stopped  bool
}

// Service runs download tasks with a parallelism limit.
type Service struct {
	eng     engine.Engine
	logger  zerolog.Logger
	history HistoryRecorder
	locker  URLLocker
	retry   RetryPolicy

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	tasks       map[string]*task
	order       []string
	queue       []string
	active      int
	maxParallel int
	closed      bool
	onUpdate    func(*model.DownloadTask) // callback for UI updates
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l.With().Str("component", "download").Logger() }
}

// WithHistory records terminal outcomes in h
func WithHistory(h HistoryRecorder) Option {
	return func(s *Service) { s.history = h }
}

// WithURLLocker guards every running URL with a cross-process lock
func WithURLLocker(l URLLocker) Option {
	return func(s *Service) { s.locker = l }
}

// WithRetryPolicy overrides the retry policy derived from the config
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.retry = p }
}

// NewService creates a new download service
func NewService(eng engine.Engine, cfg config.DownloadConfig, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	retry := DefaultRetryPolicy()
	retry.MaxRetries = cfg.Retries
	if cfg.RetryDelay > 0 {
		retry.InitialDelay = cfg.RetryDelay
	}

	s := &Service{
		eng:         eng,
		logger:      zerolog.Nop(),
		retry:       retry,
		ctx:         ctx,
		cancel:      cancel,
		tasks:       make(map[string]*task),
		maxParallel: config.ClampParallel(cfg.MaxParallel),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUpdateCallback sets the callback function for task updates. The
// callback gets copies and runs on transfer goroutines.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.mu.Lock()
	s.onUpdate = callback
	s.mu.Unlock()
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Service) SetMaxParallelDownloads(max int) {
	s.mu.Lock()
	s.maxParallel = config.ClampParallel(max)
	starts := s.scheduleLocked()
	s.mu.Unlock()
	s.run(starts)
}

// AddTask queues a download for req
func (s *Service) AddTask(req model.Request) (*model.DownloadTask, error) {
	if !req.HasLocator() {
		return nil, transfer.ErrMissingLocator
	}
	url := req.Locator()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	for _, t := range s.tasks {
		if t.view.Request.Locator() == url && !t.view.Phase.IsTerminal() {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateURL, url)
		}
	}

	t := &task{view: model.NewDownloadTask(newTaskID(), req), queued: true}
	s.tasks[t.view.ID] = t
	s.order = append(s.order, t.view.ID)
	s.queue = append(s.queue, t.view.ID)
	snap := t.view.Snapshot()
	s.logger.Info().Str("task", snap.ID).Str("url", url).Str("quality", req.Quality.String()).Bool("playlist", req.Playlist).Msg("task added")

	starts := s.scheduleLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.run(starts)
	return snap, nil
}

// GetTask returns a copy of the task
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.view.Snapshot(), true
}

// GetAllTasks returns copies of all tasks in the order they were added
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.DownloadTask, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].view.Snapshot())
	}
	return out
}

// StopTask cancels a queued, waiting or running task
func (s *Service) StopTask(id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.view.Phase.IsTerminal() && !t.queued && t.timer == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotActive, t.view.Phase)
	}
	t.stopped = true

	if t.running {
		tr := t.transfer
		s.mu.Unlock()
		tr.RequestCancel()
		return nil
	}

	// queued or waiting for a retry: never reaches the engine again
	s.dequeueLocked(id)
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	s.releaseLockLocked(t)
	ev := model.Event{
		Phase:  model.PhaseCancelled,
		ETA:    model.ETAUnknown,
		Status: transfer.StatusCancelled,
		At:     time.Now(),
	}
	t.view.ApplyEvent(ev)
	snap := t.view.Snapshot()
	entry := s.historyEntry(t, ev)
	s.mu.Unlock()

	s.record(entry)
	metrics.ObserveTerminal(ev)
	s.notify(snap)
	return nil
}

// RestartTask runs a finished, cancelled or failed task again
func (s *Service) RestartTask(id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	if !t.view.Phase.IsTerminal() || t.queued || t.running || t.timer != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskActive, t.view.Phase)
	}

	fresh := model.NewDownloadTask(t.view.ID, t.view.Request)
	fresh.Attempt = t.view.Attempt
	fresh.Title = t.view.Title
	t.view = fresh
	t.stopped = false
	t.queued = true
	s.queue = append(s.queue, id)
	snap := t.view.Snapshot()
	starts := s.scheduleLocked()
	s.mu.Unlock()

	s.notify(snap)
	s.run(starts)
	return nil
}

// RemoveTask forgets an ended task
func (s *Service) RemoveTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !t.view.Phase.IsTerminal() || t.queued || t.running || t.timer != nil {
		return fmt.Errorf("%w: %s", ErrTaskActive, t.view.Phase)
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Shutdown cancels every task and waits for running transfers to end
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	var waits []<-chan struct{}
	var cancelled []*model.DownloadTask
	var entries []history.Entry
	var events []model.Event
	for _, id := range s.order {
		t := s.tasks[id]
		t.stopped = true
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		if t.running {
			waits = append(waits, t.transfer.Done())
			continue
		}
		s.releaseLockLocked(t)
		if t.queued || !t.view.Phase.IsTerminal() {
			t.queued = false
			ev := model.Event{Phase: model.PhaseCancelled, ETA: model.ETAUnknown, Status: transfer.StatusCancelled, At: time.Now()}
			t.view.ApplyEvent(ev)
			cancelled = append(cancelled, t.view.Snapshot())
			entries = append(entries, s.historyEntry(t, ev))
			events = append(events, ev)
		}
	}
	s.queue = nil
	s.mu.Unlock()

	s.cancel()
	for i, e := range entries {
		s.record(e)
		metrics.ObserveTerminal(events[i])
	}
	s.notify(cancelled...)

	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("shutdown: %w", ctx.Err())
		}
	}
	s.logger.Info().Int("stopped", len(waits)).Msg("download service stopped")
	return nil
}

// scheduleLocked takes queued tasks while slots are free and returns the
// transfers to start once the lock is released.
func (s *Service) scheduleLocked() []func() {
	var starts []func()
	for s.active < s.maxParallel && len(s.queue) > 0 && !s.closed {
		id := s.queue[0]
		s.queue = s.queue[1:]
		t, ok := s.tasks[id]
		if !ok || !t.queued {
			continue
		}
		t.queued = false

		if s.locker != nil && t.lock == nil {
			lock, err := s.locker.TryLock(t.view.Request.Locator())
			if err != nil {
				ev := model.Event{Phase: model.PhaseFailed, ETA: model.ETAUnknown, Status: err.Error(), Err: err, At: time.Now()}
				t.view.ApplyEvent(ev)
				snap, entry := t.view.Snapshot(), s.historyEntry(t, ev)
				starts = append(starts, func() {
					s.record(entry)
					metrics.ObserveTerminal(ev)
					s.notify(snap)
				})
				continue
			}
			t.lock = lock
		}

		starts = append(starts, s.launchLocked(t))
	}
	return starts
}

// launchLocked prepares a new transfer for t
func (s *Service) launchLocked(t *task) func() {
	t.view.Attempt++
	t.running = true
	s.active++
	metrics.TransfersActive.Inc()

	id := t.view.ID
	req := t.view.Request
	tr := transfer.New(s.eng, transfer.WithLogger(s.logger.With().Str("task", id).Int("attempt", t.view.Attempt).Logger()))
	t.transfer = tr

	return func() {
		tr.Start(s.ctx, req, func(ev model.Event) { s.handleEvent(id, tr, ev) })
	}
}

// handleEvent folds a transfer event into its task
func (s *Service) handleEvent(id string, tr *transfer.Transfer, ev model.Event) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.transfer != tr {
		s.mu.Unlock()
		return
	}

	if !ev.IsTerminal() {
		t.view.ApplyEvent(ev)
		snap := t.view.Snapshot()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	t.running = false
	s.active--
	metrics.TransfersActive.Dec()

	if ev.Phase == model.PhaseFailed && !t.stopped && !s.closed && s.retry.ShouldRetry(ev.Err, t.view.Attempt) {
		delay := s.retry.Delay(t.view.Attempt)
		t.view.ApplyEvent(ev)
		t.view.Phase = model.PhaseIdle
		t.view.Queued = true
		t.view.FinishedAt = time.Time{}
		t.view.Status = fmt.Sprintf(StatusRetrying, delay, t.view.Attempt+1, s.retry.MaxRetries+1)
		t.timer = time.AfterFunc(delay, func() { s.requeue(id) })
		metrics.TransferRetriesTotal.Inc()
		s.logger.Warn().Str("task", id).Err(ev.Err).Dur("next_retry_in", delay).Msg("network error, will retry")

		snap := t.view.Snapshot()
		starts := s.scheduleLocked()
		s.mu.Unlock()
		s.notify(snap)
		s.run(starts)
		return
	}

	// the URL is free again before anyone can observe the terminal phase
	s.releaseLockLocked(t)
	t.view.ApplyEvent(ev)
	snap := t.view.Snapshot()
	entry := s.historyEntry(t, ev)
	starts := s.scheduleLocked()
	s.mu.Unlock()

	s.record(entry)
	metrics.ObserveTerminal(ev)
	s.notify(snap)
	s.run(starts)
}

// requeue puts a task waiting for a retry at the front of the queue
func (s *Service) requeue(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.timer == nil || t.stopped || s.closed {
		s.mu.Unlock()
		return
	}
	t.timer = nil
	t.queued = true
	t.view.Status = StatusQueued
	s.queue = append([]string{id}, s.queue...)
	starts := s.scheduleLocked()
	s.mu.Unlock()
	s.run(starts)
}

func (s *Service) dequeueLocked(id string) {
	for i, qid := range s.queue {
		if qid == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	if t, ok := s.tasks[id]; ok {
		t.queued = false
	}
}

// releaseLockLocked frees the URL lock held for t, if any
func (s *Service) releaseLockLocked(t *task) {
	if t.lock == nil {
		return
	}
	if err := t.lock.Release(); err != nil {
		s.logger.Warn().Err(err).Str("task", t.view.ID).Msg("failed to release URL lock")
	}
	t.lock = nil
}

func (s *Service) historyEntry(t *task, ev model.Event) history.Entry {
	return history.Entry{
		ID:         t.view.ID,
		URL:        t.view.Request.Locator(),
		Title:      t.view.Title,
		Phase:      ev.Phase,
		Message:    ev.Message(),
		Bytes:      ev.Downloaded,
		Attempts:   t.view.Attempt,
		StartedAt:  t.view.StartedAt,
		FinishedAt: t.view.FinishedAt,
	}
}

func (s *Service) record(e history.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(e); err != nil {
		s.logger.Warn().Err(err).Str("task", e.ID).Msg("failed to record history")
	}
}

func (s *Service) run(starts []func()) {
	for _, start := range starts {
		start()
	}
}

// notify calls the update callback if set
func (s *Service) notify(tasks ...*model.DownloadTask) {
	s.mu.Lock()
	cb := s.onUpdate
	s.mu.Unlock()
	if cb == nil {
		return
	}
	for _, t := range tasks {
		cb(t)
	}
}

// newTaskID generates a time-ordered task id
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
