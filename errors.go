package uringrt

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/uringrt/uringrt/internal/ring"
)

// Error is this runtime's structured error type: an operation name, a
// high-level category, the originating errno if any, a message and an
// optionally wrapped cause.
type Error struct {
	Op     string    // operation that failed, e.g. "stream.read_vectored"
	TaskID uint64    // owning task, 0 if not applicable
	Code   ErrorCode // high-level error category
	Errno  syscall.Errno
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.TaskID != 0 {
		parts = append(parts, fmt.Sprintf("task=%d", e.TaskID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("uringrt: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("uringrt: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode is a high-level error category. See SPEC_FULL.md §7/§10 for the
// taxonomy this runtime surfaces to callers.
type ErrorCode string

const (
	ErrCodeRingFull     ErrorCode = "submission ring full"
	ErrCodeInterrupted  ErrorCode = "interrupted"
	ErrCodeIOError      ErrorCode = "I/O error"
	ErrCodeDisconnected ErrorCode = "disconnected"
	ErrCodeNoRuntime    ErrorCode = "no active runtime"
	ErrCodeClosed       ErrorCode = "closed"
	ErrCodeInvalid      ErrorCode = "invalid argument"
)

// NewError creates a structured error with no wrapped cause.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewTaskError creates a structured error attributed to a specific task.
func NewTaskError(op string, taskID uint64, code ErrorCode, msg string) *Error {
	return &Error{Op: op, TaskID: taskID, Code: code, Msg: msg}
}

// WrapError wraps err with operation context, classifying it by ErrorCode.
// A nil err wraps to nil. An err already of type *Error keeps its code and
// errno and just updates Op, the same re-tagging behavior a caller sees
// when a leaf future's error crosses a combinator boundary.
func WrapError(op string, code ErrorCode, err error) *Error {
	if err == nil {
		return nil
	}
	if ue, ok := err.(*Error); ok {
		return &Error{Op: op, TaskID: ue.TaskID, Code: ue.Code, Errno: ue.Errno, Msg: ue.Msg, Inner: ue.Inner}
	}
	if errno, ok := err.(syscall.Errno); ok {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: err}
	}
	if errors.Is(err, ring.ErrRingFull) {
		return &Error{Op: op, Code: ErrCodeRingFull, Msg: err.Error(), Inner: err}
	}
	return &Error{Op: op, Code: code, Msg: err.Error(), Inner: err}
}

// errnoError decodes a negative kernel result word into a structured error.
// Per the kernel's io_uring ABI, a completion's result field carries -errno
// on failure.
func errnoError(op string, result int32) *Error {
	errno := syscall.Errno(-result)
	return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error()}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.EINTR:
		return ErrCodeInterrupted
	case syscall.EPIPE, syscall.ECONNRESET, syscall.ENOTCONN:
		return ErrCodeDisconnected
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalid
	case syscall.EBADF:
		return ErrCodeClosed
	default:
		return ErrCodeIOError
	}
}

// IsCode reports whether err (or a wrapped error in its chain) carries code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsErrno reports whether err (or a wrapped error in its chain) carries errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno == errno
	}
	return false
}
