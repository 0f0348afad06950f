//go:build !linux

package wake

import "golang.org/x/sys/unix"

// pipeDescriptor approximates the eventfd contract with a non-blocking
// self-pipe on platforms without eventfd. Each Notify writes one byte;
// each Drain consumes one. Poll-add-readable against Fd() works the same
// way it does against a real eventfd.
type pipeDescriptor struct {
	r, w int
}

func newPlatform() (Descriptor, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &pipeDescriptor{r: fds[0], w: fds[1]}, nil
}

func (p *pipeDescriptor) Fd() int32 { return int32(p.r) }

func (p *pipeDescriptor) Notify() {
	var b [1]byte
	_, _ = unix.Write(p.w, b[:])
}

func (p *pipeDescriptor) Drain() error {
	var b [1]byte
	_, err := unix.Read(p.r, b[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *pipeDescriptor) Close() error {
	err1 := unix.Close(p.w)
	err2 := unix.Close(p.r)
	if err1 != nil {
		return err1
	}
	return err2
}
