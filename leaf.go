package uringrt

import (
	"time"
	"unsafe"

	"github.com/uringrt/uringrt/internal/notifier"
	"github.com/uringrt/uringrt/internal/ring"
)

// ioKind tags a leafFuture with which Metrics/Observer counters its
// completion should feed, if any.
type ioKind int

const (
	ioKindOther ioKind = iota
	ioKindRead
	ioKindWrite
)

// leafFuture is the state machine every kernel-backed operation in this
// package (vectored read/write, poll-add-readable) is built from. It
// implements SPEC_FULL.md §4.2's two-poll leaf protocol: the first poll
// reserves and submits a submission queue entry and returns pending; every
// later poll checks whether the executor has delivered a result yet.
type leafFuture struct {
	op   string
	kind ioKind
	prep func(*ring.SQE)

	notifier    *notifier.Notifier
	submitted   bool
	submittedAt time.Time
}

func newLeaf(op string, kind ioKind, prep func(*ring.SQE)) *leafFuture {
	return &leafFuture{op: op, kind: kind, prep: prep}
}

// pollReadable submits an IORING_OP_POLL_ADD watching fd for POLLIN. Used
// by the channel Receiver to wait on its wake descriptor.
func pollReadable(fd int32) Future[IOResult] {
	return newLeaf("poll_readable", ioKindOther, func(sqe *ring.SQE) {
		sqe.PrepPollAddReadable(fd)
	})
}

func (f *leafFuture) Poll(cx *Context) (IOResult, bool) {
	h := cx.handle
	if h == nil {
		panic(NewError(f.op, ErrCodeNoRuntime, "uringrt: leaf future polled outside a running task"))
	}

	if !f.submitted {
		taskID, ok := h.currentTaskID()
		if !ok {
			panic(NewError(f.op, ErrCodeNoRuntime, "uringrt: leaf future polled with no current task"))
		}

		sqe, err := h.reserve()
		if err != nil {
			return IOResult{Err: WrapError(f.op, ErrCodeRingFull, err)}, true
		}

		n := notifier.New(uint64(taskID))
		f.prep(sqe)
		sqe.UserData = uint64(uintptr(unsafe.Pointer(n)))

		if _, err := h.submit(); err != nil {
			return IOResult{Err: WrapError(f.op, ErrCodeIOError, err)}, true
		}

		// n is kept alive for the kernel by this field, not by the uintptr
		// copy in sqe.UserData: the garbage collector cannot see through a
		// uintptr, only through an ordinary pointer.
		f.notifier = n
		f.submitted = true
		f.submittedAt = time.Now()
		return IOResult{}, false
	}

	if !f.notifier.HasResult() {
		return IOResult{}, false
	}

	res := f.notifier.Observe()
	latencyNs := uint64(time.Since(f.submittedAt).Nanoseconds())

	if res < 0 {
		err := errnoError(f.op, res)
		f.observe(h, 0, latencyNs, false)
		return IOResult{Err: err}, true
	}
	f.observe(h, uint64(res), latencyNs, true)
	return IOResult{N: int(res)}, true
}

// observe reports this leaf's outcome to the active runtime's Observer, if
// its kind names one of the counted I/O operations.
func (f *leafFuture) observe(h *runtimeHandle, bytes uint64, latencyNs uint64, success bool) {
	obs := h.observer()
	switch f.kind {
	case ioKindRead:
		obs.ObserveRead(bytes, latencyNs, success)
	case ioKindWrite:
		obs.ObserveWrite(bytes, latencyNs, success)
	}
}
