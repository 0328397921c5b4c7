package lumen

import "go.uber.org/zap"

// Config holds configuration options for lowering.
type Config struct {
	// Log receives per-pass debug output.
	// If nil, logging is disabled.
	Log *zap.Logger

	// CacheSize is the number of artifacts a Workspace retains,
	// keyed by input-tree fingerprint (default: 100).
	CacheSize int
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
}

const defaultCacheSize = 100
