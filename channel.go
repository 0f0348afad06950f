package uringrt

import (
	"sync"
	"sync/atomic"

	"github.com/uringrt/uringrt/internal/wake"
)

// chanState is the queue and wake descriptor shared by every clone of a
// Sender and its single Receiver. SPEC_FULL.md §3/§4.4: "Sender holds the
// queue's producer end and the descriptor; Receiver holds the consumer end
// and the descriptor" — both ends share the same single kernel descriptor,
// so there is exactly one wake.Descriptor per channel, not one per side.
type chanState[T any] struct {
	mu           sync.Mutex
	queue        []T
	receiverGone bool
	senderCount  atomic.Int32
	desc         wake.Descriptor
	observer     Observer
}

// Sender is the producer handle of a WakeChannel. It may be cloned to give
// multiple tasks a producer end of the same channel; the zero value is not
// usable, use Channel to construct one.
type Sender[T any] struct {
	state *chanState[T]
}

// Receiver is the consumer handle of a WakeChannel.
type Receiver[T any] struct {
	state *chanState[T]
}

// SendError is returned by Sender.Send when the receiver has been closed.
// It carries the value back so the caller can decide what to do with it.
type SendError[T any] struct {
	Value T
}

func (e *SendError[T]) Error() string {
	return "uringrt: send on a channel whose receiver is gone"
}

// Channel creates a single-receiver, multi-producer queue woken through a
// kernel-pollable descriptor, per SPEC_FULL.md §4.4. Close the returned
// Sender (and any clone of it) and the Receiver when done with them: unlike
// the Rust original this queue is modeled on, Go has no destructor to hook
// the last-sender-dropped and receiver-dropped transitions, so those
// transitions are explicit method calls here instead.
//
// An optional Observer reports every Send and every value-producing Recv;
// pass an Executor's own Observer (see Executor.Observer) to fold channel
// traffic into the same Metrics snapshot as that executor's I/O counters.
// Omit it, or pass nil, to skip reporting.
func Channel[T any](observer ...Observer) (Sender[T], Receiver[T], error) {
	d, err := wake.New()
	if err != nil {
		return Sender[T]{}, Receiver[T]{}, WrapError("channel.new", ErrCodeIOError, err)
	}
	obs := Observer(NoOpObserver{})
	if len(observer) > 0 && observer[0] != nil {
		obs = observer[0]
	}
	st := &chanState[T]{
		desc:     d,
		observer: obs,
		queue:    make([]T, 0, DefaultChannelQueueHint),
	}
	st.senderCount.Store(1)
	return Sender[T]{state: st}, Receiver[T]{state: st}, nil
}

// Send enqueues value and notifies the wake descriptor. Returns a
// *SendError[T] wrapping value back if the receiver has already closed.
func (s Sender[T]) Send(value T) error {
	s.state.mu.Lock()
	gone := s.state.receiverGone
	if !gone {
		s.state.queue = append(s.state.queue, value)
	}
	s.state.mu.Unlock()

	if gone {
		return &SendError[T]{Value: value}
	}
	s.state.desc.Notify()
	s.state.observer.ObserveChannelSend()
	return nil
}

// Clone returns another producer handle for the same channel, incrementing
// the live sender count. Each clone, including the original, must
// eventually be closed.
func (s Sender[T]) Clone() Sender[T] {
	s.state.senderCount.Add(1)
	return Sender[T]{state: s.state}
}

// Close releases this sender handle. Once every clone has been closed, the
// channel is marked disconnected and the receiver is woken a final time so
// a pending Recv observes the disconnect instead of blocking forever.
func (s Sender[T]) Close() {
	if s.state.senderCount.Add(-1) == 0 {
		s.state.desc.Notify()
	}
}

// RecvResult is the output of Receiver.Recv: either a value, or Disconnected
// set to true once the queue is empty and every sender has closed.
type RecvResult[T any] struct {
	Value        T
	Disconnected bool
}

// Recv returns a future that resolves once a value is available or every
// sender has closed with the queue empty.
func (r Receiver[T]) Recv() Future[RecvResult[T]] {
	return &recvFuture[T]{recv: r}
}

// Close releases the channel's shared wake descriptor and marks the
// receiver gone so any later Send fails fast instead of silently queuing.
func (r Receiver[T]) Close() error {
	r.state.mu.Lock()
	r.state.receiverGone = true
	r.state.mu.Unlock()
	if err := r.state.desc.Close(); err != nil {
		return WrapError("channel.receiver_close", ErrCodeIOError, err)
	}
	return nil
}

type recvFuture[T any] struct {
	recv  Receiver[T]
	inner Future[IOResult]
}

func (f *recvFuture[T]) Poll(cx *Context) (RecvResult[T], bool) {
	st := f.recv.state
	for {
		st.mu.Lock()
		if len(st.queue) > 0 {
			v := st.queue[0]
			st.queue = st.queue[1:]
			st.mu.Unlock()
			st.observer.ObserveChannelRecv()
			return RecvResult[T]{Value: v}, true
		}
		disconnected := st.senderCount.Load() == 0
		st.mu.Unlock()

		if disconnected {
			return RecvResult[T]{Disconnected: true}, true
		}

		if f.inner == nil {
			f.inner = pollReadable(st.desc.Fd())
		}
		res, ready := f.inner.Poll(cx)
		if !ready {
			return RecvResult[T]{}, false
		}
		f.inner = nil
		if res.Err == nil {
			_ = st.desc.Drain()
		}
		// Loop back around: the queue may now hold a value, or every
		// sender may have closed, or this was a spurious wake that leaves
		// us to poll-add-readable again.
	}
}
