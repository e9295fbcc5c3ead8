package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytgrab/internal/config"
	"github.com/ytget/ytgrab/internal/engine"
	"github.com/ytget/ytgrab/internal/history"
	"github.com/ytget/ytgrab/internal/model"
	"github.com/ytget/ytgrab/internal/platform"
	"github.com/ytget/ytgrab/internal/transfer"
)

const eventually = 2 * time.Second

func testConfig(maxParallel int) config.DownloadConfig {
	return config.DownloadConfig{
		Directory:   "/tmp/ytgrab-test",
		Quality:     "720p",
		MaxParallel: maxParallel,
		Retries:     0,
		RetryDelay:  time.Millisecond,
	}
}

func req(url string) model.Request {
	return model.Request{URL: url, Quality: 720}
}

// quickEngine finishes every download after a single full chunk
func quickEngine() engine.Engine {
	return engine.EngineFunc(func(_ context.Context, _ string, opts engine.Options) error {
		return opts.OnChunk(engine.Chunk{Status: engine.ChunkDownloading, Downloaded: 100, Total: 100, ETA: -1})
	})
}

// gateEngine blocks every download until released or cancelled
type gateEngine struct {
	release chan struct{}
	calls   atomic.Int32
}

func newGateEngine() *gateEngine {
	return &gateEngine{release: make(chan struct{})}
}

func (g *gateEngine) Download(ctx context.Context, _ string, _ engine.Options) error {
	g.calls.Add(1)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func waitPhase(t *testing.T, s *Service, id string, phase model.Phase) *model.DownloadTask {
	t.Helper()
	var last *model.DownloadTask
	require.Eventually(t, func() bool {
		task, ok := s.GetTask(id)
		last = task
		return ok && task.Phase == phase
	}, eventually, 5*time.Millisecond, "task %s never reached %s", id, phase)
	return last
}

func TestNewService(t *testing.T) {
	s := NewService(quickEngine(), testConfig(0))
	assert.Equal(t, 1, s.maxParallel, "parallelism is clamped")
	assert.Empty(t, s.tasks)

	s = NewService(quickEngine(), testConfig(50))
	assert.Equal(t, config.MaxMaxParallel, s.maxParallel)
}

func TestAddTask_Finishes(t *testing.T) {
	store, err := history.Open("")
	require.NoError(t, err)

	s := NewService(quickEngine(), testConfig(2), WithHistory(store))
	var mu sync.Mutex
	var phases []model.Phase
	s.SetUpdateCallback(func(task *model.DownloadTask) {
		mu.Lock()
		phases = append(phases, task.Phase)
		mu.Unlock()
	})

	task, err := s.AddTask(req("https://youtube.com/watch?v=test1"))
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)

	done := waitPhase(t, s, task.ID, model.PhaseFinished)
	assert.Equal(t, 100, done.Percent)
	assert.Equal(t, model.NotAvailable, done.Speed)
	assert.Equal(t, 1, done.Attempt)

	mu.Lock()
	assert.Contains(t, phases, model.PhaseFinished)
	mu.Unlock()

	require.Eventually(t, func() bool {
		entries, _ := store.List(0)
		return len(entries) == 1
	}, eventually, 5*time.Millisecond)
	entries, _ := store.List(0)
	assert.Equal(t, "https://youtube.com/watch?v=test1", entries[0].URL)
	assert.Equal(t, model.PhaseFinished, entries[0].Phase)
}

func TestAddTask_Validation(t *testing.T) {
	gate := newGateEngine()
	s := NewService(gate, testConfig(1))
	defer close(gate.release)

	_, err := s.AddTask(req("  "))
	assert.ErrorIs(t, err, transfer.ErrInvalidRequest)

	first, err := s.AddTask(req("https://youtube.com/watch?v=dup"))
	require.NoError(t, err)

	_, err = s.AddTask(req("https://youtube.com/watch?v=dup"))
	assert.ErrorIs(t, err, ErrDuplicateURL)

	second, err := s.AddTask(req("https://youtube.com/watch?v=other"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAddTask_RespectsParallelism(t *testing.T) {
	gate := newGateEngine()
	s := NewService(gate, testConfig(1))

	a, err := s.AddTask(req("https://youtube.com/watch?v=a"))
	require.NoError(t, err)
	b, err := s.AddTask(req("https://youtube.com/watch?v=b"))
	require.NoError(t, err)

	waitPhase(t, s, a.ID, model.PhaseConnecting)
	queued, _ := s.GetTask(b.ID)
	assert.True(t, queued.Queued)
	assert.Equal(t, model.PhaseIdle, queued.Phase)
	assert.Equal(t, int32(1), gate.calls.Load())

	close(gate.release)
	waitPhase(t, s, a.ID, model.PhaseFinished)
	waitPhase(t, s, b.ID, model.PhaseFinished)
	assert.Equal(t, int32(2), gate.calls.Load())

	all := s.GetAllTasks()
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)
}

func TestStopTask(t *testing.T) {
	gate := newGateEngine()
	s := NewService(gate, testConfig(1))
	defer close(gate.release)

	running, err := s.AddTask(req("https://youtube.com/watch?v=run"))
	require.NoError(t, err)
	queued, err := s.AddTask(req("https://youtube.com/watch?v=wait"))
	require.NoError(t, err)
	waitPhase(t, s, running.ID, model.PhaseConnecting)

	require.NoError(t, s.StopTask(queued.ID))
	stopped := waitPhase(t, s, queued.ID, model.PhaseCancelled)
	assert.False(t, stopped.Queued)

	require.NoError(t, s.StopTask(running.ID))
	cancelled := waitPhase(t, s, running.ID, model.PhaseCancelled)
	assert.Equal(t, 0, cancelled.Percent)
	assert.Equal(t, transfer.StatusCancelled, cancelled.Status)

	assert.ErrorIs(t, s.StopTask(running.ID), ErrTaskNotActive)
	assert.ErrorIs(t, s.StopTask("missing"), ErrTaskNotFound)
	assert.Equal(t, int32(1), gate.calls.Load(), "the stopped queued task never reached the engine")
}

func TestRetry_NetworkError(t *testing.T) {
	var calls atomic.Int32
	eng := engine.EngineFunc(func(_ context.Context, _ string, opts engine.Options) error {
		if calls.Add(1) == 1 {
			return &engine.ExitError{Message: "ERROR: Unable to download webpage: <urlopen error [Errno -3] Temporary failure in name resolution>"}
		}
		return opts.OnChunk(engine.Chunk{Status: engine.ChunkDownloading, Downloaded: 10, Total: 10})
	})
	cfg := testConfig(1)
	cfg.Retries = 2
	s := NewService(eng, cfg)

	task, err := s.AddTask(req("https://youtube.com/watch?v=flaky"))
	require.NoError(t, err)

	done := waitPhase(t, s, task.ID, model.PhaseFinished)
	assert.Equal(t, 2, done.Attempt)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetry_NotForOtherErrors(t *testing.T) {
	var calls atomic.Int32
	eng := engine.EngineFunc(func(context.Context, string, engine.Options) error {
		calls.Add(1)
		return &engine.ExitError{Message: "ERROR: [youtube] abc: Video unavailable"}
	})
	cfg := testConfig(1)
	cfg.Retries = 3
	s := NewService(eng, cfg)

	task, err := s.AddTask(req("https://youtube.com/watch?v=gone"))
	require.NoError(t, err)

	failed := waitPhase(t, s, task.ID, model.PhaseFailed)
	assert.Equal(t, "ERROR: [youtube] abc: Video unavailable", failed.LastError)
	assert.Equal(t, 1, failed.Attempt)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRestartAndRemoveTask(t *testing.T) {
	var calls atomic.Int32
	eng := engine.EngineFunc(func(_ context.Context, _ string, opts engine.Options) error {
		if calls.Add(1) == 1 {
			return errors.New("ERROR: Requested format is not available")
		}
		return opts.OnChunk(engine.Chunk{Status: engine.ChunkDownloading, Downloaded: 1, Total: 1})
	})
	s := NewService(eng, testConfig(1))

	task, err := s.AddTask(req("https://youtube.com/watch?v=again"))
	require.NoError(t, err)
	waitPhase(t, s, task.ID, model.PhaseFailed)

	require.NoError(t, s.RestartTask(task.ID))
	done := waitPhase(t, s, task.ID, model.PhaseFinished)
	assert.Equal(t, 2, done.Attempt)
	assert.Empty(t, done.LastError)

	require.NoError(t, s.RemoveTask(task.ID))
	_, ok := s.GetTask(task.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, s.RestartTask(task.ID), ErrTaskNotFound)
}

func TestRestartTask_Active(t *testing.T) {
	gate := newGateEngine()
	s := NewService(gate, testConfig(1))
	defer close(gate.release)

	task, err := s.AddTask(req("https://youtube.com/watch?v=busy"))
	require.NoError(t, err)
	waitPhase(t, s, task.ID, model.PhaseConnecting)

	assert.ErrorIs(t, s.RestartTask(task.ID), ErrTaskActive)
	assert.ErrorIs(t, s.RemoveTask(task.ID), ErrTaskActive)
}

func TestURLLock_HeldElsewhere(t *testing.T) {
	locker, err := platform.NewURLLocker(t.TempDir())
	require.NoError(t, err)

	held, err := locker.TryLock("https://youtube.com/watch?v=locked")
	require.NoError(t, err)
	defer held.Release()

	s := NewService(quickEngine(), testConfig(1), WithURLLocker(locker))
	task, err := s.AddTask(req("https://youtube.com/watch?v=locked"))
	require.NoError(t, err)

	failed := waitPhase(t, s, task.ID, model.PhaseFailed)
	assert.Equal(t, platform.ErrURLLocked.Error(), failed.LastError)

	free, err := s.AddTask(req("https://youtube.com/watch?v=free"))
	require.NoError(t, err)
	waitPhase(t, s, free.ID, model.PhaseFinished)

	// released after the transfer ended
	lock, err := locker.TryLock("https://youtube.com/watch?v=free")
	require.NoError(t, err)
	lock.Release()
}

func TestShutdown(t *testing.T) {
	gate := newGateEngine()
	store, err := history.Open("")
	require.NoError(t, err)
	s := NewService(gate, testConfig(1), WithHistory(store))

	running, err := s.AddTask(req("https://youtube.com/watch?v=1"))
	require.NoError(t, err)
	queued, err := s.AddTask(req("https://youtube.com/watch?v=2"))
	require.NoError(t, err)
	waitPhase(t, s, running.ID, model.PhaseConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), eventually)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	r, _ := s.GetTask(running.ID)
	assert.Equal(t, model.PhaseCancelled, r.Phase)
	q, _ := s.GetTask(queued.ID)
	assert.Equal(t, model.PhaseCancelled, q.Phase)

	// the queued task never ran but still leaves a history entry
	entries, err := store.List(0)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e.ID == queued.ID {
			found = true
			assert.Equal(t, model.PhaseCancelled, e.Phase)
			assert.Equal(t, "https://youtube.com/watch?v=2", e.URL)
		}
	}
	assert.True(t, found, "queued task missing from history")

	_, err = s.AddTask(req("https://youtube.com/watch?v=3"))
	assert.ErrorIs(t, err, ErrServiceClosed)
}
