package uringrt

import (
	"golang.org/x/sys/unix"

	"github.com/uringrt/uringrt/internal/ring"
)

// Shutdown directions for Stream.Shutdown, matching unix.SHUT_RD/WR/RDWR.
const (
	ShutdownRead  = unix.SHUT_RD
	ShutdownWrite = unix.SHUT_WR
	ShutdownBoth  = unix.SHUT_RDWR
)

// Stream wraps a pre-accepted OS stream socket file descriptor. Its
// acquisition, socket options and accept loop are the caller's concern
// (see SPEC_FULL.md §6's demonstration program for one way to do this); a
// Stream only ever submits read/write/poll operations against an fd it
// already owns.
//
// A Stream is not safe to drive from more than one task concurrently: the
// spec's single-owner rule means at most one read and one write leaf
// future may be in flight against a given Stream at a time.
type Stream struct {
	fd int32
}

// NewStream wraps an already-open, already-connected socket descriptor.
func NewStream(fd int32) *Stream {
	return &Stream{fd: fd}
}

// Fd returns the stream's raw file descriptor.
func (s *Stream) Fd() int32 {
	return s.fd
}

// ReadVectored submits a single IORING_OP_READV into buffers. The returned
// future resolves to the number of bytes read (0 at end-of-stream) or an
// error.
func (s *Stream) ReadVectored(buffers [][]byte) Future[IOResult] {
	iovecs := ring.IovecsFromBuffers(buffers)
	fd := s.fd
	return newLeaf("stream.read_vectored", ioKindRead, func(sqe *ring.SQE) {
		sqe.PrepReadVectored(fd, iovecs)
	})
}

// WriteVectored submits a single IORING_OP_WRITEV from buffers. Like a raw
// write(2), it may return fewer bytes than the total buffer length; callers
// that need every byte written should use WriteAllVectored instead.
func (s *Stream) WriteVectored(buffers [][]byte) Future[IOResult] {
	iovecs := ring.IovecsFromBuffers(buffers)
	fd := s.fd
	return newLeaf("stream.write_vectored", ioKindWrite, func(sqe *ring.SQE) {
		sqe.PrepWriteVectored(fd, iovecs)
	})
}

// WriteAllVectored resubmits WriteVectored against whatever part of
// buffers remains unwritten until every byte has been accepted by the
// kernel, or an error or a zero-length write occurs.
func (s *Stream) WriteAllVectored(buffers [][]byte) Future[IOResult] {
	remaining := make([][]byte, len(buffers))
	copy(remaining, buffers)
	return &writeAllFuture{fd: s.fd, remaining: remaining}
}

// Shutdown shuts down one or both directions of the underlying socket.
func (s *Stream) Shutdown(how int) error {
	if err := unix.Shutdown(int(s.fd), how); err != nil {
		return WrapError("stream.shutdown", ErrCodeIOError, err)
	}
	return nil
}

// Close closes the underlying file descriptor. Not safe to call while a
// leaf future against this stream has an operation in flight: the kernel
// still holds the fd number for that submission.
func (s *Stream) Close() error {
	if err := unix.Close(int(s.fd)); err != nil {
		return WrapError("stream.close", ErrCodeIOError, err)
	}
	return nil
}

// writeAllFuture drives repeated WriteVectored submissions until the whole
// buffer set is flushed. Each external Poll call advances at most one
// in-flight write: on the call that observes that write's completion, it
// immediately submits the next one before returning pending, the same
// "poll inner once, chain forward if already ready" shape any futures
// combinator library uses.
type writeAllFuture struct {
	fd        int32
	remaining [][]byte
	inner     Future[IOResult]
}

func (f *writeAllFuture) Poll(cx *Context) (IOResult, bool) {
	for {
		if totalLen(f.remaining) == 0 {
			return IOResult{}, true
		}

		if f.inner == nil {
			iovecs := ring.IovecsFromBuffers(f.remaining)
			fd := f.fd
			f.inner = newLeaf("stream.write_all_vectored", ioKindWrite, func(sqe *ring.SQE) {
				sqe.PrepWriteVectored(fd, iovecs)
			})
		}

		res, ready := f.inner.Poll(cx)
		if !ready {
			return IOResult{}, false
		}
		f.inner = nil

		if res.Err != nil {
			return res, true
		}
		if res.N == 0 {
			return IOResult{Err: NewError("stream.write_all_vectored", ErrCodeDisconnected, "write returned 0 with data remaining")}, true
		}
		f.remaining = advance(f.remaining, res.N)
	}
}

func totalLen(bufs [][]byte) int {
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	return n
}

// advance drops the first n bytes from a buffer set, across as many
// leading buffers as necessary.
func advance(bufs [][]byte, n int) [][]byte {
	for n > 0 && len(bufs) > 0 {
		if n < len(bufs[0]) {
			bufs[0] = bufs[0][n:]
			return bufs
		}
		n -= len(bufs[0])
		bufs = bufs[1:]
	}
	return bufs
}
