package ring

import "unsafe"

// SQE mirrors the kernel's io_uring_sqe submission layout for the subset of
// fields the three opcodes this runtime uses (read-vectored, write-vectored,
// poll-add) actually touch. Must stay 64 bytes to match the kernel ABI when
// the Linux backend points directly into mmap'd ring memory.
type SQE struct {
	Opcode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	SpliceFdIn  int32
	_           [2]uint64
}

// CQE mirrors the kernel's io_uring_cqe completion layout. 16 bytes.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// Completion is the value the executor receives from WaitOne.
type Completion struct {
	UserData uint64
	Result   int32
}

// Iovec mirrors the kernel's struct iovec for readv/writev submissions.
type Iovec struct {
	Base uintptr
	Len  uint64
}

// Set points the iovec at b's backing array. b must stay alive and
// unmodified until the operation it's attached to completes.
func (v *Iovec) Set(b []byte) {
	v.Len = uint64(len(b))
	if v.Len > 0 {
		v.Base = uintptr(unsafe.Pointer(&b[0]))
	}
}

// IovecsFromBuffers builds an Iovec slice pointing at each non-empty buffer.
func IovecsFromBuffers(buffers [][]byte) []Iovec {
	out := make([]Iovec, 0, len(buffers))
	for _, b := range buffers {
		if len(b) == 0 {
			continue
		}
		var v Iovec
		v.Set(b)
		out = append(out, v)
	}
	return out
}

// PrepReadVectored fills the SQE for an IORING_OP_READV against fd.
func (s *SQE) PrepReadVectored(fd int32, iovecs []Iovec) {
	s.Opcode = OpReadv
	s.Fd = fd
	s.Off = 0
	s.Len = 0
	s.Addr = 0
	if len(iovecs) > 0 {
		s.Len = uint32(len(iovecs))
		s.Addr = uint64(uintptr(unsafe.Pointer(&iovecs[0])))
	}
}

// PrepWriteVectored fills the SQE for an IORING_OP_WRITEV against fd.
func (s *SQE) PrepWriteVectored(fd int32, iovecs []Iovec) {
	s.Opcode = OpWritev
	s.Fd = fd
	s.Off = 0
	s.Len = 0
	s.Addr = 0
	if len(iovecs) > 0 {
		s.Len = uint32(len(iovecs))
		s.Addr = uint64(uintptr(unsafe.Pointer(&iovecs[0])))
	}
}

// PrepPollAddReadable fills the SQE for an IORING_OP_POLL_ADD watching fd
// for POLLIN.
func (s *SQE) PrepPollAddReadable(fd int32) {
	s.Opcode = OpPollAdd
	s.Fd = fd
	s.OpcodeFlags = PollIn
}
