package uringrt

import (
	"golang.org/x/sys/unix"

	"github.com/uringrt/uringrt/internal/ring"
)

// NewSimExecutor builds an Executor backed by the deterministic in-process
// simulation ring instead of a real kernel io_uring instance. Useful for
// tests that want to run on any platform, or want many concurrent
// in-flight operations without needing root or a recent enough kernel.
func NewSimExecutor(entries uint32) *Executor {
	if entries == 0 {
		entries = DefaultRingEntries
	}
	return newExecutorWithRing(ring.NewSim(entries), Config{})
}

// NewSimExecutorWithConfig is NewSimExecutor plus explicit Logger/Metrics.
func NewSimExecutorWithConfig(entries uint32, cfg Config) *Executor {
	if entries == 0 {
		entries = DefaultRingEntries
	}
	return newExecutorWithRing(ring.NewSim(entries), cfg)
}

// SocketPair opens a connected pair of stream sockets for tests that need
// two live file descriptors to drive ReadVectored/WriteVectored against
// each other without a real listener.
func SocketPair() (a, b *Stream, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, WrapError("testing.socket_pair", ErrCodeIOError, err)
	}
	return NewStream(int32(fds[0])), NewStream(int32(fds[1])), nil
}

// funcTask adapts a plain function into a TaskFuture that completes on its
// first poll. Useful for tests that want to run a short synchronous body
// inside the executor without hand-writing a state machine.
type funcTask struct {
	fn   func()
	done bool
}

// NewFuncTask wraps fn as a TaskFuture that runs fn once and completes.
func NewFuncTask(fn func()) TaskFuture {
	return &funcTask{fn: fn}
}

func (t *funcTask) Poll(cx *Context) (struct{}, bool) {
	if !t.done {
		t.fn()
		t.done = true
	}
	return struct{}{}, true
}
