//go:build linux

package ring

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// setup and enter issue the two raw io_uring syscalls directly, the same
// way internal/uring/minimal.go in the teacher repository does (via
// unix.SYS_IO_URING_SETUP / unix.SYS_IO_URING_ENTER), rather than through a
// third-party io_uring binding: the go.mod-declared
// github.com/pawelgaczynski/giouring is never actually imported anywhere in
// that repository, so this module grounds the real backend in the syscalls
// golang.org/x/sys/unix already exposes and the teacher already uses,
// instead of an unverifiable external API (see DESIGN.md).

func setup(entries uint32, params *Params) (int, error) {
	r1, _, errno := syscall.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(params)), 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

func enter(fd int, toSubmit, minComplete, flags uint32) (int, error) {
	r1, _, errno := syscall.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(fd), uintptr(toSubmit), uintptr(minComplete), uintptr(flags), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}
