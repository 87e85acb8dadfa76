package session

import (
	"time"
)

// Config holds session manager configuration.
type Config struct {
	// TTL is the store expiry of a session record. It is re-extended whenever
	// activity is recorded.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// RollingWindow is the minimum idle time before activity is written back.
	// Requests inside the window do not touch the store.
	RollingWindow time.Duration `env:"SESSION_ROLLING_WINDOW" envDefault:"5m"`
	// AbsoluteMaxAge caps a session's lifetime regardless of activity (0 = no cap).
	AbsoluteMaxAge time.Duration `env:"SESSION_ABSOLUTE_MAX_AGE" envDefault:"720h"`
	// MaxConcurrent limits live sessions per user (0 = unlimited).
	MaxConcurrent int `env:"SESSION_MAX_CONCURRENT" envDefault:"5"`

	KeyPrefix   string `env:"SESSION_KEY_PREFIX" envDefault:"session:"`
	IndexPrefix string `env:"SESSION_INDEX_PREFIX" envDefault:"user_sessions:"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		TTL:            24 * time.Hour,
		RollingWindow:  5 * time.Minute,
		AbsoluteMaxAge: 30 * 24 * time.Hour,
		MaxConcurrent:  5,
		KeyPrefix:      "session:",
		IndexPrefix:    "user_sessions:",
	}
}

// normalize fills zero values that would break key building or expiry.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.RollingWindow < 0 {
		c.RollingWindow = 0
	}
	if c.AbsoluteMaxAge < 0 {
		c.AbsoluteMaxAge = 0
	}
	if c.MaxConcurrent < 0 {
		c.MaxConcurrent = 0
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = d.IndexPrefix
	}
	return c
}

// indexTTL is the expiry applied to a user's session index on every mutation.
func (c Config) indexTTL() time.Duration {
	if c.AbsoluteMaxAge > 0 {
		return c.AbsoluteMaxAge
	}
	return c.TTL
}
