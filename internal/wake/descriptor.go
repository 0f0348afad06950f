// Package wake provides the kernel-pollable counting descriptor the
// cross-thread WakeChannel uses to signal the runtime. On Linux this is a
// real eventfd in semaphore mode; elsewhere it falls back to a
// non-blocking self-pipe with the same one-unit-per-notify contract.
package wake

// Descriptor is a counting, non-blocking, close-on-exec wake primitive.
// Notify increments it by one unit; Drain consumes one unit. Both sides
// are safe to call from any goroutine; only Drain is expected to be called
// from the runtime thread (via a poll-add-readable submission on Fd()).
type Descriptor interface {
	// Fd returns the raw file descriptor to register with the ring's
	// poll-add-readable submission.
	Fd() int32

	// Notify writes a single unit increment. Per the wake channel's
	// contract, failures are not reported: a disconnected receiver will
	// be discovered through the queue instead.
	Notify()

	// Drain consumes a single unit, non-blocking. Returns nil if nothing
	// was pending (EAGAIN) as well as on success.
	Drain() error

	// Close releases the descriptor.
	Close() error
}

// New creates the platform-appropriate Descriptor.
func New() (Descriptor, error) {
	return newPlatform()
}
