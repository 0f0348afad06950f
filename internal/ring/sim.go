package ring

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// simRing is a deterministic, in-process Ring double. It performs real
// readv/writev/poll syscalls against whatever file descriptors its callers
// hand it, but drives them from ordinary goroutines instead of a kernel
// completion ring, so it runs on any platform and needs no root/kernel
// feature support. It is the backend the non-Linux build of this package
// uses, and the one the test suite exercises directly, so tests run
// against the same code path production non-Linux builds would.
type simRing struct {
	mu        sync.Mutex
	pending   []*SQE
	inflight  uint32
	entries   uint32
	completed chan Completion
	closed    bool
}

// NewSim creates a simulation Ring with the given slot capacity.
func NewSim(entries uint32) Ring {
	if entries == 0 {
		entries = 1024
	}
	return &simRing{
		entries:   entries,
		completed: make(chan Completion, entries),
	}
}

func (r *simRing) Reserve() (*SQE, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if uint32(len(r.pending))+r.inflight >= r.entries {
		return nil, ErrRingFull
	}
	s := &SQE{}
	r.pending = append(r.pending, s)
	return s, nil
}

func (r *simRing) Submit() (uint32, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	batch := r.pending
	r.pending = nil
	r.inflight += uint32(len(batch))
	r.mu.Unlock()

	for _, s := range batch {
		go r.execute(s)
	}
	return uint32(len(batch)), nil
}

func (r *simRing) execute(s *SQE) {
	var res int32
	switch s.Opcode {
	case OpReadv:
		n, err := unix.Readv(int(s.Fd), iovecsToBuffers(s))
		res = resultOf(n, err)
	case OpWritev:
		n, err := unix.Writev(int(s.Fd), iovecsToBuffers(s))
		res = resultOf(n, err)
	case OpPollAdd:
		pfd := []unix.PollFd{{Fd: s.Fd, Events: int16(s.OpcodeFlags)}}
		_, err := unix.Poll(pfd, -1)
		res = resultOf(0, err)
	default:
		res = -int32(unix.EINVAL)
	}

	r.mu.Lock()
	r.inflight--
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return
	}
	r.completed <- Completion{UserData: s.UserData, Result: res}
}

func (r *simRing) WaitOne() (Completion, error) {
	c, ok := <-r.completed
	if !ok {
		return Completion{}, ErrClosed
	}
	return c, nil
}

func (r *simRing) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	close(r.completed)
	return nil
}

func resultOf(n int, err error) int32 {
	if err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return -int32(errno)
		}
		return -int32(unix.EIO)
	}
	return int32(n)
}

func iovecsToBuffers(s *SQE) [][]byte {
	if s.Len == 0 || s.Addr == 0 {
		return nil
	}
	ivs := unsafe.Slice((*Iovec)(unsafe.Pointer(uintptr(s.Addr))), int(s.Len))
	out := make([][]byte, len(ivs))
	for i, v := range ivs {
		if v.Len == 0 {
			continue
		}
		out[i] = unsafe.Slice((*byte)(unsafe.Pointer(v.Base)), int(v.Len))
	}
	return out
}
