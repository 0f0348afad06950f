//go:build linux

package ring

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel mmap offsets, from include/uapi/linux/io_uring.h.
const (
	offSQRing uint64 = 0
	offCQRing uint64 = 0x8000000
	offSQEs   uint64 = 0x10000000
)

// linuxRing is the real Completion Ring Adapter backend: it issues
// io_uring_setup/io_uring_enter directly and mmaps the submission and
// completion rings, following the mmap/index protocol
// cloudwego-gopkg/internal/iouring/iouring.go implements (see DESIGN.md).
type linuxRing struct {
	fd     int
	params Params

	ringMem []byte
	sqeMem  []byte

	sqHead        *uint32
	sqTail        *uint32
	sqRingMask    uint32
	sqRingEntries uint32
	sqArray       []uint32
	sqes          []SQE

	cqHead        *uint32
	cqTail        *uint32
	cqRingMask    uint32
	cqRingEntries uint32
	cqes          []CQE

	localTail     uint32 // next index to claim, not yet published to sqTail
	submittedTail uint32 // last value written to *sqTail
}

func newPlatformRing(cfg Config) (Ring, error) {
	return NewLinux(cfg)
}

// NewLinux creates a Ring backed by a real kernel io_uring instance.
func NewLinux(cfg Config) (Ring, error) {
	entries := cfg.Entries
	if entries == 0 {
		entries = 1024
	}

	var params Params
	fd, err := setup(entries, &params)
	if err != nil {
		return nil, fmt.Errorf("ring: io_uring_setup: %w", err)
	}

	if params.Features&FeatSingleMmap == 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("ring: kernel lacks IORING_FEAT_SINGLE_MMAP")
	}

	sqRingSize := uint64(params.SqOff.Array) + uint64(params.SqEntries)*4
	cqRingSize := uint64(params.CqOff.CQEs) + uint64(params.CqEntries)*uint64(unsafe.Sizeof(CQE{}))
	ringSize := sqRingSize
	if cqRingSize > ringSize {
		ringSize = cqRingSize
	}

	ringMem, err := unix.Mmap(fd, int64(offSQRing), int(ringSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ring: mmap sq/cq ring: %w", err)
	}

	sqeSize := int(params.SqEntries) * int(unsafe.Sizeof(SQE{}))
	sqeMem, err := unix.Mmap(fd, int64(offSQEs), sqeSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(ringMem)
		unix.Close(fd)
		return nil, fmt.Errorf("ring: mmap sqes: %w", err)
	}

	ringBase := unsafe.Pointer(&ringMem[0])
	r := &linuxRing{
		fd:            fd,
		params:        params,
		ringMem:       ringMem,
		sqeMem:        sqeMem,
		sqHead:        (*uint32)(unsafe.Add(ringBase, params.SqOff.Head)),
		sqTail:        (*uint32)(unsafe.Add(ringBase, params.SqOff.Tail)),
		sqRingMask:    *(*uint32)(unsafe.Add(ringBase, params.SqOff.RingMask)),
		sqRingEntries: *(*uint32)(unsafe.Add(ringBase, params.SqOff.RingEntries)),
		sqArray:       unsafe.Slice((*uint32)(unsafe.Add(ringBase, params.SqOff.Array)), params.SqEntries),
		sqes:          unsafe.Slice((*SQE)(unsafe.Pointer(&sqeMem[0])), params.SqEntries),

		cqHead:        (*uint32)(unsafe.Add(ringBase, params.CqOff.Head)),
		cqTail:        (*uint32)(unsafe.Add(ringBase, params.CqOff.Tail)),
		cqRingMask:    *(*uint32)(unsafe.Add(ringBase, params.CqOff.RingMask)),
		cqRingEntries: *(*uint32)(unsafe.Add(ringBase, params.CqOff.RingEntries)),
		cqes:          unsafe.Slice((*CQE)(unsafe.Add(ringBase, params.CqOff.CQEs)), params.CqEntries),
	}
	r.localTail = atomic.LoadUint32(r.sqTail)
	r.submittedTail = r.localTail

	runtime.SetFinalizer(r, (*linuxRing).Close)
	return r, nil
}

func (r *linuxRing) Reserve() (*SQE, error) {
	head := atomic.LoadUint32(r.sqHead)
	if r.localTail-head >= r.sqRingEntries {
		return nil, ErrRingFull
	}
	idx := r.localTail & r.sqRingMask
	sqe := &r.sqes[idx]
	*sqe = SQE{}
	r.sqArray[idx] = idx
	r.localTail++
	return sqe, nil
}

func (r *linuxRing) Submit() (uint32, error) {
	pending := r.localTail - r.submittedTail
	if pending == 0 {
		return 0, nil
	}
	atomic.StoreUint32(r.sqTail, r.localTail)
	r.submittedTail = r.localTail

	for {
		n, err := enter(r.fd, pending, 0, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("ring: io_uring_enter submit: %w", err)
		}
		return uint32(n), nil
	}
}

func (r *linuxRing) WaitOne() (Completion, error) {
	for {
		head := atomic.LoadUint32(r.cqHead)
		tail := atomic.LoadUint32(r.cqTail)
		if head != tail {
			cqe := r.cqes[head&r.cqRingMask]
			atomic.StoreUint32(r.cqHead, head+1)
			return Completion{UserData: cqe.UserData, Result: cqe.Res}, nil
		}

		_, err := enter(r.fd, 0, 1, EnterGetEvents)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return Completion{}, fmt.Errorf("ring: io_uring_enter wait: %w", err)
		}
	}
}

func (r *linuxRing) Close() error {
	runtime.SetFinalizer(r, nil)
	err1 := unix.Munmap(r.sqeMem)
	err2 := unix.Munmap(r.ringMem)
	err3 := unix.Close(r.fd)
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}
