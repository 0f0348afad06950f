package ring

// Opcodes, setup flags and poll masks, restricted to the subset this
// runtime's three submission kinds need. Values match the kernel's
// include/uapi/linux/io_uring.h and are grounded on
// cloudwego-gopkg/internal/iouring/iouring.go, which defines the full set.
const (
	OpReadv   uint8 = 1
	OpWritev  uint8 = 2
	OpPollAdd uint8 = 6
)

const (
	SetupDefault uint32 = 0
)

const (
	FeatSingleMmap uint32 = 1 << 0
)

const (
	EnterGetEvents uint32 = 1 << 0
)

const (
	PollIn uint32 = 0x0001
)

// SQOffsets/CQOffsets describe the byte offsets of each ring-management
// field within the combined mmap region, as returned by io_uring_setup in
// io_uring_params.
type SQOffsets struct {
	Head, Tail, RingMask, RingEntries, Flags, Dropped, Array, Resv1 uint32
	Resv2                                                           uint64
}

type CQOffsets struct {
	Head, Tail, RingMask, RingEntries, Overflow, CQEs, Flags, Resv1 uint32
	Resv2                                                           uint64
}

// Params mirrors io_uring_params, the struct passed to io_uring_setup and
// filled in by the kernel with ring layout offsets and feature flags.
type Params struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCPU  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOff        SQOffsets
	CqOff        CQOffsets
}
