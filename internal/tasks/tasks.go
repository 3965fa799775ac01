// Package tasks implements the background task runtime (§4.I): tasks
// run on their own goroutine with a Context offering message/progress
// signals and cooperative cancellation; a Runtime collects signals from
// every live task and a single Drain call (meant to run once per UI
// tick) dispatches them to listeners without ever blocking the caller.
// Grounded on dtail's internal/io/signal (goroutine translating external
// events into a channel the main loop drains) for the "never block the
// UI thread" discipline, and bounded here by a
// golang.org/x/sync/semaphore.Weighted per SPEC_FULL.md so a burst of
// user actions queues instead of spawning unbounded goroutines.
package tasks

import (
	gocontext "context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/errors"
)

var nextID uint64

// ID identifies one spawned task.
type ID uint64

// SignalKind distinguishes the three signal shapes a task can emit (§4.I).
type SignalKind int

const (
	SignalCustom SignalKind = iota
	SignalProgress
	SignalComplete
)

// Signal is one message routed from a task back to the Runtime's
// listener. Exactly one of Message, Progress, Result/Err is meaningful,
// selected by Kind.
type Signal struct {
	TaskID   ID
	Kind     SignalKind
	Message  any
	Progress uint8
	Result   any
	Err      error
}

// Context is what a running task body receives: a way to send custom
// messages and progress, and to observe its own interrupt signal.
type Context struct {
	taskCtx  gocontext.Context
	cancel   gocontext.CancelFunc
	signals  chan Signal
	id       ID
	interrupted atomic.Bool
}

// SendMessage emits an application-defined Custom signal.
func (tc *Context) SendMessage(m any) {
	tc.emit(Signal{TaskID: tc.id, Kind: SignalCustom, Message: m})
}

// UpdateProgress emits a Progress signal, 0-100.
func (tc *Context) UpdateProgress(p uint8) {
	tc.emit(Signal{TaskID: tc.id, Kind: SignalProgress, Progress: p})
}

// Interrupted reports whether the task's owner has requested
// cancellation. Cooperative only - the runtime never force-kills (§4.I).
func (tc *Context) Interrupted() bool {
	select {
	case <-tc.taskCtx.Done():
		tc.interrupted.Store(true)
		return true
	default:
		return tc.interrupted.Load()
	}
}

// InterruptedDebounced reports the same as Interrupted and polls the
// context on every call; it takes no period and does no debouncing.
// The poll is an O(1), non-blocking channel check, so it is cheap to
// call on every loop iteration.
func (tc *Context) InterruptedDebounced() bool {
	return tc.Interrupted()
}

func (tc *Context) emit(s Signal) {
	select {
	case tc.signals <- s:
	case <-tc.taskCtx.Done():
	}
}

// Handle is the caller-facing identity of a spawned task (§3 "Process
// handle"): an opaque id, a title, a description, and a way to
// interrupt it. Shared by value to listeners.
type Handle struct {
	ID          ID
	Title       string
	Description string
	cancel      gocontext.CancelFunc
}

// Interrupt signals the task to stop at its next cooperative check.
func (h Handle) Interrupt() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Runtime spawns and drains background tasks, bounding how many run
// concurrently with a weighted semaphore.
type Runtime struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	signals  chan Signal
	handles  map[ID]Handle
	listener func(Signal)
}

// NewRuntime returns a Runtime allowing up to weight tasks to run their
// bodies concurrently (additional Spawn calls still return immediately;
// their bodies simply wait for a semaphore slot before starting).
func NewRuntime(weight int64) *Runtime {
	if weight <= 0 {
		weight = constants.DefaultBackgroundTaskWeight
	}
	return &Runtime{
		sem:     semaphore.NewWeighted(weight),
		signals: make(chan Signal, constants.TaskSignalChannelSize),
		handles: make(map[ID]Handle),
	}
}

// Spawn launches fn on its own goroutine and returns immediately with a
// Handle; fn does not start running until a semaphore slot is free, but
// that wait happens on the spawned goroutine, never on the caller (§4.I,
// §5 "no suspension points on the UI thread").
func (rt *Runtime) Spawn(title, description string, fn func(ctx *Context) (any, error)) Handle {
	id := ID(atomic.AddUint64(&nextID, 1))
	taskCtx, cancel := gocontext.WithCancel(gocontext.Background())
	handle := Handle{ID: id, Title: title, Description: description, cancel: cancel}

	rt.mu.Lock()
	rt.handles[id] = handle
	rt.mu.Unlock()

	tc := &Context{taskCtx: taskCtx, cancel: cancel, signals: rt.signals, id: id}

	go func() {
		defer cancel()
		if err := rt.sem.Acquire(taskCtx, 1); err != nil {
			tc.emit(Signal{TaskID: id, Kind: SignalComplete, Err: errors.ErrCancelled})
			return
		}
		defer rt.sem.Release(1)

		result, err := fn(tc)
		if err != nil && errors.Is(err, errors.ErrCancelled) {
			tc.emit(Signal{TaskID: id, Kind: SignalComplete, Err: errors.ErrCancelled})
			return
		}
		tc.emit(Signal{TaskID: id, Kind: SignalComplete, Result: result, Err: err})
	}()

	return handle
}

// Listen registers the single listener Drain dispatches signals to.
func (rt *Runtime) Listen(fn func(Signal)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.listener = fn
}

// Drain dispatches every signal currently queued, without blocking, and
// unregisters a task's handle once its Complete signal has been
// delivered. Meant to be called once per UI tick (§4.I, §5).
func (rt *Runtime) Drain() {
	rt.mu.Lock()
	listener := rt.listener
	rt.mu.Unlock()

	for {
		select {
		case s := <-rt.signals:
			if listener != nil {
				listener(s)
			}
			if s.Kind == SignalComplete {
				rt.mu.Lock()
				delete(rt.handles, s.TaskID)
				rt.mu.Unlock()
			}
		default:
			return
		}
	}
}

// Active returns the handles of tasks that have not yet completed.
func (rt *Runtime) Active() []Handle {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]Handle, 0, len(rt.handles))
	for _, h := range rt.handles {
		out = append(out, h)
	}
	return out
}
