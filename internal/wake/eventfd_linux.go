//go:build linux

package wake

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// eventfdDescriptor wraps a Linux eventfd opened in semaphore,
// close-on-exec, non-blocking mode, matching the construction contract in
// SPEC_FULL.md §3/§4.4 and grounded on original_source/src/mpsc.rs's
// channel() constructor.
type eventfdDescriptor struct {
	fd int
}

func newPlatform() (Descriptor, error) {
	fd, err := unix.Eventfd(0, unix.EFD_SEMAPHORE|unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdDescriptor{fd: fd}, nil
}

func (e *eventfdDescriptor) Fd() int32 { return int32(e.fd) }

func (e *eventfdDescriptor) Notify() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(e.fd, buf[:])
}

func (e *eventfdDescriptor) Drain() error {
	var buf [8]byte
	_, err := unix.Read(e.fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (e *eventfdDescriptor) Close() error {
	return unix.Close(e.fd)
}
