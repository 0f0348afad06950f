package uringrt

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/uringrt/uringrt/internal/constants"
	"github.com/uringrt/uringrt/internal/logging"
	"github.com/uringrt/uringrt/internal/notifier"
	"github.com/uringrt/uringrt/internal/ring"
)

// TaskID identifies a spawned task for the lifetime of its tenure in the
// executor's task table.
type TaskID uint64

// runtimeHandle is the thread-local record the free Spawn function and every
// leaf future reach the running Executor through. It exists so leaf futures
// never need a direct *Executor field, matching the spec's RuntimeHandle.
type runtimeHandle struct {
	ex *Executor
}

func (h *runtimeHandle) reserve() (*ring.SQE, error) {
	return h.ex.ring.Reserve()
}

func (h *runtimeHandle) submit() (uint32, error) {
	return h.ex.ring.Submit()
}

func (h *runtimeHandle) currentTaskID() (TaskID, bool) {
	return h.ex.currentTaskID, h.ex.hasCurrentTask
}

func (h *runtimeHandle) spawn(f TaskFuture) {
	h.ex.spawnQueue = append(h.ex.spawnQueue, f)
}

func (h *runtimeHandle) observer() Observer {
	return h.ex.observer
}

// activeRuntime is the single slot backing "thread-local" runtime lookup.
// It is one package-level slot, not one per OS thread, so only one Executor
// may be running in the process at a time; Run pins itself to its OS
// thread for its whole lifetime and fills the slot in place of Rust's
// thread_local!.
var activeRuntime atomic.Pointer[runtimeHandle]

func currentHandle() (*runtimeHandle, bool) {
	h := activeRuntime.Load()
	return h, h != nil
}

// Config configures a new Executor. The zero value is valid and selects
// defaults.
type Config struct {
	// RingEntries is the Completion Ring Adapter's submission/completion
	// queue depth. Zero selects constants.DefaultRingEntries.
	RingEntries uint32

	// Logger receives diagnostic output. Nil selects logging.Default().
	Logger *logging.Logger

	// Metrics receives task and I/O counters. Nil allocates a fresh Metrics.
	Metrics *Metrics

	// Observer receives per-operation I/O and channel observations from
	// leaf futures as they complete. Nil wraps Metrics in a MetricsObserver,
	// so the common case (read Executor.Metrics().Snapshot() afterward)
	// needs no explicit wiring.
	Observer Observer
}

// Executor is the single-threaded cooperative runtime: one OS thread, one
// Completion Ring Adapter, one task table, one FIFO spawn queue. See
// SPEC_FULL.md §3/§5 for the full data and concurrency model.
type Executor struct {
	ring     ring.Ring
	logger   *logging.Logger
	metrics  *Metrics
	observer Observer

	tasks      map[TaskID]TaskFuture
	spawnQueue []TaskFuture
	nextID     uint64

	currentTaskID  TaskID
	hasCurrentTask bool
}

// New creates an Executor with default configuration, backed by a real
// io_uring instance on Linux (the simulation ring elsewhere). It panics if
// the kernel ring cannot be created; that can only happen from resource
// exhaustion or a kernel too old to support io_uring, both of which are
// unrecoverable program-start faults in this runtime's model.
func New() *Executor {
	e, err := NewWithConfig(Config{})
	if err != nil {
		panic(err)
	}
	return e
}

// NewWithConfig creates an Executor with explicit configuration, returning
// any error from ring construction instead of panicking.
func NewWithConfig(cfg Config) (*Executor, error) {
	entries := cfg.RingEntries
	if entries == 0 {
		entries = constants.DefaultRingEntries
	}
	r, err := ring.New(ring.Config{Entries: entries})
	if err != nil {
		return nil, WrapError("executor.New", ErrCodeIOError, err)
	}
	return newExecutorWithRing(r, cfg), nil
}

func newExecutorWithRing(r ring.Ring, cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}
	return &Executor{
		ring:     r,
		logger:   logger,
		metrics:  metrics,
		observer: observer,
		tasks:    make(map[TaskID]TaskFuture),
	}
}

// Spawn admits a task into the spawn queue. Legal before Run (from the
// controlling goroutine) and, since a *Executor reference captured by a
// closure is still the same single-threaded executor, from within a
// running task too — though code running inside a task should normally
// prefer the free Spawn function, which doesn't require holding onto an
// *Executor reference.
func (e *Executor) Spawn(f TaskFuture) {
	e.spawnQueue = append(e.spawnQueue, f)
}

// Spawn admits a task from within a running task, routed through the
// process-wide active runtime handle. Panics if no Executor is running —
// SPEC_FULL.md §7's ErrCodeNoRuntime
// is a programming error here, not a recoverable condition, since there is
// no meaningful value to return synchronously from a free function with
// this signature.
func Spawn(f TaskFuture) {
	h, ok := currentHandle()
	if !ok {
		panic(NewError("spawn", ErrCodeNoRuntime, "uringrt: Spawn called with no active runtime on this thread"))
	}
	h.spawn(f)
}

// Run pins the calling goroutine to its OS thread, installs it as the
// active runtime, and drives the task table to completion: drain the spawn
// queue, then alternate between draining newly spawned tasks and blocking
// for the next kernel completion, until no tasks remain. Returns the first
// error WaitOne produces, if any; a clean drain to zero tasks returns nil.
func (e *Executor) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := &runtimeHandle{ex: e}
	activeRuntime.Store(h)
	defer activeRuntime.Store(nil)

	e.drainSpawnQueue(h)
	for len(e.tasks) > 0 {
		if len(e.spawnQueue) > 0 {
			e.drainSpawnQueue(h)
			continue
		}
		completion, err := e.ring.WaitOne()
		if err != nil {
			return WrapError("executor.Run", ErrCodeIOError, err)
		}
		e.dispatch(h, completion)
	}
	return nil
}

func (e *Executor) drainSpawnQueue(h *runtimeHandle) {
	for len(e.spawnQueue) > 0 {
		f := e.spawnQueue[0]
		e.spawnQueue = e.spawnQueue[1:]

		e.nextID++
		id := TaskID(e.nextID)
		e.metrics.TasksSpawned.Add(1)

		e.currentTaskID = id
		e.hasCurrentTask = true
		cx := newContext(h)
		_, ready := f.Poll(cx)
		e.hasCurrentTask = false

		if ready {
			e.metrics.TasksCompleted.Add(1)
		} else {
			e.tasks[id] = f
		}
	}
}

// dispatch delivers one kernel completion to the notifier its user-data
// word addresses, then re-polls the owning task. A task ready after this
// poll is removed from the table; otherwise it stays, waiting for its next
// leaf operation's completion.
func (e *Executor) dispatch(h *runtimeHandle, completion ring.Completion) {
	n := (*notifier.Notifier)(unsafe.Pointer(uintptr(completion.UserData)))
	n.Deliver(completion.Result)

	id := TaskID(n.TaskID)
	f, ok := e.tasks[id]
	if !ok {
		panic(fmt.Sprintf("uringrt: completion dispatched for unknown task %d", id))
	}

	e.currentTaskID = id
	e.hasCurrentTask = true
	cx := newContext(h)
	_, ready := f.Poll(cx)
	e.hasCurrentTask = false

	if ready {
		delete(e.tasks, id)
		e.metrics.TasksCompleted.Add(1)
	}
	if rc := n.Refcount(); rc != 0 {
		panic(fmt.Sprintf("uringrt: notifier for task %d has refcount %d after dispatch, want 0", id, rc))
	}
	e.metrics.CompletionsDispatched.Add(1)
}

// Close releases the executor's Completion Ring Adapter. Call only after
// Run has returned.
func (e *Executor) Close() error {
	return e.ring.Close()
}

// Metrics returns the executor's metrics snapshot source.
func (e *Executor) Metrics() *Metrics {
	return e.metrics
}

// Observer returns the executor's I/O and channel observer, the same one
// its own leaf futures report through. Pass it to Channel to fold channel
// traffic into the same Metrics snapshot as the executor's I/O counters.
func (e *Executor) Observer() Observer {
	return e.observer
}
