// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness poller used by the Dispatcher.

package reactor

import (
	"time"

	"github.com/momentics/hioload-sockhook/api"
)

// readyEvent is one readiness report translated to api event bits.
type readyEvent struct {
	fd     int
	events uint32
}

// poller multiplexes descriptors and can be woken from any goroutine.
// Only wake is safe for concurrent use.
type poller interface {
	add(fd int, events uint32, trigger api.FileTriggerType) error
	modify(fd int, events uint32, trigger api.FileTriggerType) error
	remove(fd int) error
	// wait blocks up to timeout (negative: until woken) and appends ready
	// descriptors to out. A wake-up alone yields no events.
	wait(timeout time.Duration, out []readyEvent) ([]readyEvent, error)
	wake() error
	close() error
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return int(ms)
}
