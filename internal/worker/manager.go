package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull     = errors.New("task queue full")
	ErrWorkerStopped = errors.New("worker stopped")
)

const (
	defaultQueueLen    = 16
	defaultIdleTimeout = 30 * time.Minute
)

// Config tunes a Manager.
type Config struct {
	QueueSize   int
	IdleTimeout time.Duration
	// OnRelease runs after a user's worker exits because it went idle or was
	// reset. No task of that user is running when it is called.
	OnRelease func(ctx context.Context, userID int64)
}

type task struct {
	run   func()
	abort func(error)
}

type userWorker struct {
	tasks chan task
	stop  chan struct{}
	done  chan struct{}
	// prev is closed once the user's previous worker has exited and released.
	prev <-chan struct{}
	// releaseCtx is set before stop is closed when the exit must release the user.
	releaseCtx context.Context
}

// Manager runs each user's tasks on a dedicated goroutine, one at a time and
// in submission order. Different users are served in parallel.
type Manager struct {
	mu      sync.Mutex
	workers map[int64]*userWorker
	// retiring holds the latest worker per user that left workers but has not exited.
	retiring map[int64]*userWorker
	closed   bool

	queueLen    int
	idleTimeout time.Duration
	onRelease   func(ctx context.Context, userID int64)
	logger      *zap.Logger
}

func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueLen
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		workers:     make(map[int64]*userWorker),
		retiring:    make(map[int64]*userWorker),
		queueLen:    cfg.QueueSize,
		idleTimeout: cfg.IdleTimeout,
		onRelease:   cfg.OnRelease,
		logger:      logger.Named("worker"),
	}
}

// Submit queues fn on the user's worker without waiting for it to run.
func (m *Manager) Submit(userID int64, fn func()) error {
	return m.enqueue(userID, task{run: fn, abort: func(error) {}})
}

// Do runs fn on the user's worker and waits for its result. If ctx ends first
// Do returns ctx.Err(); fn still runs to completion with a context that is
// never cancelled.
func Do[T any](ctx context.Context, m *Manager, userID int64, fn func(ctx context.Context) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	out := make(chan outcome, 1)
	runCtx := context.WithoutCancel(ctx)
	err := m.enqueue(userID, task{
		run: func() {
			v, err := fn(runCtx)
			out <- outcome{val: v, err: err}
		},
		abort: func(err error) {
			var zero T
			select {
			case out <- outcome{val: zero, err: err}:
			default:
			}
		},
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case o := <-out:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (m *Manager) enqueue(userID int64, t task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrWorkerStopped
	}
	w := m.ensureWorkerLocked(userID)
	select {
	case w.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// ResetUser stops the user's worker after its current task, aborts queued
// tasks with ErrWorkerStopped and then runs the release hook. Tasks submitted
// afterwards start on a fresh worker only once the release has finished.
func (m *Manager) ResetUser(ctx context.Context, userID int64) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.release(ctx, userID)
		return
	}
	w := m.ensureWorkerLocked(userID)
	delete(m.workers, userID)
	m.retiring[userID] = w
	w.releaseCtx = context.WithoutCancel(ctx)
	m.mu.Unlock()

	close(w.stop)
	<-w.done
}

// Active reports how many users currently have a worker.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Shutdown stops every worker and waits for running tasks to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	workers := m.workers
	m.workers = make(map[int64]*userWorker)
	retiring := make([]*userWorker, 0, len(m.retiring))
	for _, w := range m.retiring {
		retiring = append(retiring, w)
	}
	m.mu.Unlock()

	for _, w := range workers {
		close(w.stop)
	}
	for _, w := range workers {
		<-w.done
	}
	for _, w := range retiring {
		<-w.done
	}
}

func (m *Manager) ensureWorkerLocked(userID int64) *userWorker {
	if w, ok := m.workers[userID]; ok {
		return w
	}
	w := &userWorker{
		tasks: make(chan task, m.queueLen),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if old, ok := m.retiring[userID]; ok {
		w.prev = old.done
	}
	m.workers[userID] = w
	go m.runWorker(userID, w)
	m.logger.Debug("worker started", zap.Int64("user_id", userID))
	return w
}

func (m *Manager) runWorker(userID int64, w *userWorker) {
	defer m.exit(userID, w)
	if w.prev != nil {
		<-w.prev
	}

	idle := time.NewTimer(m.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-w.stop:
			m.drain(w)
			m.logger.Debug("worker stopped", zap.Int64("user_id", userID))
			return
		default:
		}

		select {
		case <-w.stop:
			m.drain(w)
			m.logger.Debug("worker stopped", zap.Int64("user_id", userID))
			return
		case t := <-w.tasks:
			m.runTask(userID, t)
			idle.Reset(m.idleTimeout)
		case <-idle.C:
			if m.retireIdle(userID, w) {
				m.logger.Debug("worker idle, releasing user", zap.Int64("user_id", userID))
				w.releaseCtx = context.Background()
				return
			}
			idle.Reset(m.idleTimeout)
		}
	}
}

// exit runs the release hook if one is due, then unblocks the user's next worker.
func (m *Manager) exit(userID int64, w *userWorker) {
	defer close(w.done)
	if w.releaseCtx != nil {
		m.release(w.releaseCtx, userID)
	}
	m.mu.Lock()
	if m.retiring[userID] == w {
		delete(m.retiring, userID)
	}
	m.mu.Unlock()
}

// retireIdle moves w out of the map unless a task slipped in meanwhile.
func (m *Manager) retireIdle(userID int64, w *userWorker) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(w.tasks) > 0 || m.workers[userID] != w {
		return false
	}
	delete(m.workers, userID)
	m.retiring[userID] = w
	return true
}

func (m *Manager) runTask(userID int64, t task) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("task panicked", zap.Int64("user_id", userID), zap.Any("panic", r))
			t.abort(ErrWorkerStopped)
		}
	}()
	t.run()
}

func (m *Manager) drain(w *userWorker) {
	for {
		select {
		case t := <-w.tasks:
			t.abort(ErrWorkerStopped)
		default:
			return
		}
	}
}

func (m *Manager) release(ctx context.Context, userID int64) {
	if m.onRelease != nil {
		m.onRelease(ctx, userID)
	}
}
