package sse

import "time"

const defaultKeepAlive = 10 * time.Second

// Config tunes Relay.
type Config struct {
	// KeepAliveInterval is the longest the stream may stay silent. Plan
	// generation can think for a while before the first delta.
	KeepAliveInterval time.Duration
}

// DefaultConfig stays under the idle timeout of common edge proxies.
func DefaultConfig() *Config {
	return &Config{KeepAliveInterval: defaultKeepAlive}
}

func (c *Config) keepAlive() time.Duration {
	if c == nil || c.KeepAliveInterval <= 0 {
		return defaultKeepAlive
	}
	return c.KeepAliveInterval
}
