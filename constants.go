package uringrt

import "github.com/uringrt/uringrt/internal/constants"

// Re-export tuning defaults for public API.
const (
	DefaultRingEntries      = constants.DefaultRingEntries
	DefaultConnBufferSize   = constants.DefaultConnBufferSize
	DefaultChannelQueueHint = constants.DefaultChannelQueueHint
	PingChunkSize           = constants.PingChunkSize
)
