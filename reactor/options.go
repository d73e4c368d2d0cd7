// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Functional options for Dispatcher construction.

package reactor

import (
	"time"

	"github.com/momentics/hioload-sockhook/control"
)

// Config holds Dispatcher settings.
type Config struct {
	Name        string
	MaxEvents   int           // readiness events fetched per poll
	PollTimeout time.Duration // negative blocks until woken
	Metrics     *control.Metrics
	Probes      *control.DebugProbes
}

// DefaultConfig returns the settings used when no option overrides them.
func DefaultConfig() Config {
	return Config{
		Name:        "dispatcher",
		MaxEvents:   128,
		PollTimeout: -1,
	}
}

// Option customizes dispatcher initialization.
type Option func(*Config)

// WithName labels log lines and debug probes.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithMaxEvents overrides the poll batch size.
func WithMaxEvents(n int) Option {
	return func(c *Config) {
		c.MaxEvents = n
	}
}

// WithPollTimeout bounds each poll; negative blocks until woken.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.PollTimeout = d
	}
}

// WithMetrics attaches interception counters.
func WithMetrics(m *control.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithProbes registers "<name>.pending_tasks" and "<name>.file_events" probes.
func WithProbes(p *control.DebugProbes) Option {
	return func(c *Config) {
		c.Probes = p
	}
}
