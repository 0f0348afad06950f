package uringrt

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("stream.read_vectored", ErrCodeInvalid, "odd buffer length")

	assert.Equal(t, "stream.read_vectored", err.Op)
	assert.Equal(t, ErrCodeInvalid, err.Code)
	assert.Equal(t, "uringrt: odd buffer length (op=stream.read_vectored)", err.Error())
}

func TestTaskError(t *testing.T) {
	err := NewTaskError("channel.recv", 7, ErrCodeDisconnected, "sender gone")

	assert.Equal(t, uint64(7), err.TaskID)
	assert.Equal(t, "uringrt: sender gone (op=channel.recv)", err.Error())
}

func TestWrapError(t *testing.T) {
	inner := syscall.ENOTCONN
	err := WrapError("stream.write_vectored", ErrCodeIOError, inner)
	require.NotNil(t, err)

	assert.Equal(t, ErrCodeDisconnected, err.Code)
	assert.Equal(t, syscall.ENOTCONN, err.Errno)
	assert.True(t, errors.Is(err, syscall.ENOTCONN), "wrapped error should satisfy errors.Is for the original errno")
}

func TestWrapErrorNilPassesThrough(t *testing.T) {
	assert.Nil(t, WrapError("op", ErrCodeIOError, nil))
}

func TestWrapErrorPreservesStructuredCause(t *testing.T) {
	inner := NewError("inner.op", ErrCodeRingFull, "ring full")
	outer := WrapError("outer.op", ErrCodeIOError, inner)
	require.NotNil(t, outer)

	assert.Equal(t, ErrCodeRingFull, outer.Code, "wrapping should keep the inner code")
	assert.Equal(t, "outer.op", outer.Op)
}

func TestIsCode(t *testing.T) {
	err := NewError("leaf", ErrCodeRingFull, "no free slot")

	assert.True(t, IsCode(err, ErrCodeRingFull))
	assert.False(t, IsCode(err, ErrCodeIOError))
	assert.False(t, IsCode(nil, ErrCodeRingFull))
}

func TestIsErrno(t *testing.T) {
	err := &Error{Op: "leaf", Code: ErrCodeIOError, Errno: syscall.EIO}

	assert.True(t, IsErrno(err, syscall.EIO))
	assert.False(t, IsErrno(err, syscall.EPERM))
	assert.False(t, IsErrno(nil, syscall.EIO))
}

func TestErrnoMapping(t *testing.T) {
	cases := []struct {
		errno    syscall.Errno
		expected ErrorCode
	}{
		{syscall.EINTR, ErrCodeInterrupted},
		{syscall.EPIPE, ErrCodeDisconnected},
		{syscall.ECONNRESET, ErrCodeDisconnected},
		{syscall.EINVAL, ErrCodeInvalid},
		{syscall.EBADF, ErrCodeClosed},
		{syscall.EIO, ErrCodeIOError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, mapErrnoToCode(tc.errno), "mapErrnoToCode(%v)", tc.errno)
	}
}

func TestErrnoError(t *testing.T) {
	err := errnoError("stream.read_vectored", -int32(syscall.ECONNRESET))

	assert.Equal(t, ErrCodeDisconnected, err.Code)
	assert.Equal(t, syscall.ECONNRESET, err.Errno)
}
