package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultWorkers          = 4
	DefaultQueueSize        = 64
	DefaultFinishedCapacity = 100
	DefaultShutdownTimeout  = 30 * time.Second
)

// Options configures a Manager. Zero values fall back to the defaults above.
type Options struct {
	Workers          int
	QueueSize        int
	FinishedCapacity int
	ShutdownTimeout  time.Duration
	Logger           *slog.Logger
}

type entry struct {
	id          ID
	name        string
	fn          Func
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	state       State
	description string
}

// Manager executes tasks on a fixed pool of workers fed by a bounded queue.
// A submitted task lives in the running registry until it finishes, then moves to the
// finished cache; both are guarded by mu so a task is always in exactly one of them.
type Manager struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration
	queue           chan *entry
	baseCtx         context.Context
	stopAll         context.CancelFunc

	mu       sync.Mutex
	closed   bool
	running  map[ID]*entry
	finished *finishedCache

	workers  sync.WaitGroup
	periodic sync.WaitGroup
}

// NewManager starts the worker pool.
func NewManager(opts Options) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.FinishedCapacity <= 0 {
		opts.FinishedCapacity = DefaultFinishedCapacity
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	baseCtx, stopAll := context.WithCancel(context.Background())
	m := &Manager{
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
		queue:           make(chan *entry, opts.QueueSize),
		baseCtx:         baseCtx,
		stopAll:         stopAll,
		running:         make(map[ID]*entry),
		finished:        newFinishedCache(opts.FinishedCapacity),
	}
	for i := 0; i < opts.Workers; i++ {
		m.workers.Add(1)
		go m.work()
	}
	return m
}

// Submit queues fn for execution and returns its id. It returns false, and no id,
// when the manager is shutting down or the queue is full.
func (m *Manager) Submit(description string, fn Func) (ID, bool) {
	e, ok := m.submit(description, fn)
	if !ok {
		return "", false
	}
	return e.id, true
}

func (m *Manager) submit(description string, fn Func) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		tasksRejected.Inc()
		m.logger.Debug("task rejected, manager is shutting down", "description", description)
		return nil, false
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	e := &entry{
		id:          ID(uuid.NewString()),
		name:        description,
		fn:          fn,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		state:       NotStarted,
		description: description,
	}
	m.running[e.id] = e

	select {
	case m.queue <- e:
	default:
		delete(m.running, e.id)
		cancel()
		tasksRejected.Inc()
		m.logger.Warn("task rejected, queue is full", "description", description)
		return nil, false
	}

	tasksSubmitted.Inc()
	m.logger.Debug("task submitted", "taskId", e.id, "description", description)
	return e, true
}

// SubmitPeriodic runs fn now and again interval after each run finishes, until shutdown.
// Every run is a separate task with its own id. A run the queue refuses is retried
// after the interval.
func (m *Manager) SubmitPeriodic(description string, fn Func, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.periodic.Add(1)
	m.mu.Unlock()

	go m.repeat(description, fn, interval)
	return true
}

func (m *Manager) repeat(description string, fn Func, interval time.Duration) {
	defer m.periodic.Done()
	for {
		if e, ok := m.submit(description, fn); ok {
			select {
			case <-e.done:
			case <-m.baseCtx.Done():
				return
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-m.baseCtx.Done():
			timer.Stop()
			return
		}
	}
}

// Status reports a running task's live status, a recently finished task's final
// status, or NotFound.
func (m *Manager) Status(id ID) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.running[id]; ok {
		return Status{State: e.state, Description: e.description}
	}
	if status, ok := m.finished.get(id); ok {
		return status
	}
	return Status{State: NotFound, Description: fmt.Sprintf("no task with id %s", id)}
}

// Interrupt asks a queued or running task to stop. It returns whether the request was
// delivered, which is only the case while the task has not finished.
func (m *Manager) Interrupt(id ID) bool {
	m.mu.Lock()
	e, ok := m.running[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.cancel()
	m.logger.Info("task interrupt requested", "taskId", id)
	return true
}

// ShutdownAndAwait stops accepting tasks, interrupts everything queued or running and
// waits up to the shutdown timeout for workers to drain. It returns whether they did;
// tasks still running after the timeout are abandoned.
func (m *Manager) ShutdownAndAwait() bool {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	m.stopAll()

	drained := make(chan struct{})
	go func() {
		m.workers.Wait()
		m.periodic.Wait()
		close(drained)
	}()

	timer := time.NewTimer(m.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-drained:
		m.logger.Info("task manager stopped")
		return true
	case <-timer.C:
		m.logger.Warn("task manager shutdown timed out, abandoning running tasks", "timeout", m.shutdownTimeout)
		return false
	}
}

func (m *Manager) work() {
	defer m.workers.Done()
	for e := range m.queue {
		m.run(e)
	}
}

func (m *Manager) run(e *entry) {
	m.mu.Lock()
	if e.ctx.Err() != nil {
		m.finishLocked(e, Interrupted, fmt.Sprintf("%s: interrupted before start", e.name))
		m.mu.Unlock()
		return
	}
	e.state = Running
	m.mu.Unlock()

	tasksRunning.Inc()
	start := time.Now()
	err := m.invoke(e)
	tasksRunning.Dec()

	m.mu.Lock()
	state, description := Completed, e.description
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, ErrInterrupted):
		state, description = Interrupted, fmt.Sprintf("%s: interrupted", e.name)
	default:
		state, description = Error, fmt.Sprintf("%s: %v", e.name, err)
	}
	m.finishLocked(e, state, description)
	m.mu.Unlock()

	if state == Error {
		m.logger.Warn("task failed", "taskId", e.id, "error", err, "elapsed", time.Since(start))
	} else {
		m.logger.Info("task finished", "taskId", e.id, "state", state, "elapsed", time.Since(start))
	}
}

func (m *Manager) invoke(e *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(e.ctx, &Progress{manager: m, entry: e})
}

// finishLocked moves e from the running registry to the finished cache. m.mu must be held.
func (m *Manager) finishLocked(e *entry, state State, description string) {
	e.state = state
	e.description = description
	delete(m.running, e.id)
	m.finished.add(e.id, Status{State: state, Description: description})
	e.cancel()
	close(e.done)
	tasksFinished.WithLabelValues(state.String()).Inc()
}
