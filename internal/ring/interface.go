// Package ring implements the Completion Ring Adapter: a thin wrapper over
// a kernel io_uring instance (or, off Linux and in tests, an in-process
// simulation of one) exposing exactly the three operations the executor
// needs: reserve a submission slot, submit reserved slots, and block for
// one completion.
package ring

import "errors"

// ErrRingFull is returned by Reserve when no submission slot is free. The
// distilled spec allows treating this as a program-level fault; this
// implementation instead surfaces it as a typed error so a caller can
// choose to back off.
var ErrRingFull = errors.New("ring: no free submission slot")

// ErrClosed is returned by any operation performed after Close.
var ErrClosed = errors.New("ring: closed")

// Config configures a new Ring.
type Config struct {
	// Entries is the number of submission/completion slots. Rounded up to
	// the backend's required granularity (a power of two, on Linux).
	Entries uint32
}

// Ring is the Completion Ring Adapter's interface, implemented by the real
// Linux backend (ring_linux.go) and by the deterministic simulation
// backend (sim.go) used in tests and on non-Linux builds.
type Ring interface {
	// Reserve returns a zeroed submission slot for the caller to fill, or
	// ErrRingFull if none is free. The returned pointer is valid until the
	// next call to Submit.
	Reserve() (*SQE, error)

	// Submit flushes every slot reserved since the last Submit to the
	// kernel (or the simulation) and returns how many were accepted.
	Submit() (uint32, error)

	// WaitOne blocks the calling OS thread until at least one completion
	// is available and returns it. Retries transparently on EINTR.
	WaitOne() (Completion, error)

	// Close releases the ring's resources. Not safe to call concurrently
	// with Reserve/Submit/WaitOne.
	Close() error
}

// New creates the platform-appropriate Ring: the real io_uring backend on
// Linux, the simulation backend everywhere else.
func New(cfg Config) (Ring, error) {
	return newPlatformRing(cfg)
}
