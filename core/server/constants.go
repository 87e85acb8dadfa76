package server

import "time"

const (
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout leaves room for a full LLM round trip.
	DefaultWriteTimeout = 90 * time.Second

	DefaultIdleTimeout = 60 * time.Second

	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)
