//go:build !linux

package ring

import "fmt"

// NewLinux is unavailable off Linux; io_uring is a Linux-only kernel
// facility. Callers should use New, which falls back to the simulation
// backend on this platform.
func NewLinux(cfg Config) (Ring, error) {
	return nil, fmt.Errorf("ring: linux io_uring backend unavailable on this platform")
}

func newPlatformRing(cfg Config) (Ring, error) {
	return NewSim(cfg.Entries), nil
}
