// File: reactor/file_event.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-sockhook/api"
)

// fileEvent is a descriptor registration owned by one Dispatcher.
// All fields are loop goroutine state.
type fileEvent struct {
	d       *Dispatcher
	fd      int
	cb      api.FileReadyCb
	trigger api.FileTriggerType
	enabled uint32

	injected  uint32
	scheduled bool
	closed    bool
}

func (fe *fileEvent) mustOwn(op string) {
	if !fe.d.ownedByCaller() {
		panic(fmt.Sprintf("reactor: fileEvent.%s: %v", op, api.ErrWrongThread))
	}
}

// Activate injects events for delivery in the next loop iteration.
func (fe *fileEvent) Activate(events uint32) {
	fe.mustOwn("Activate")
	if fe.closed {
		return
	}
	fe.injected |= events
	if !fe.scheduled {
		fe.scheduled = true
		fe.d.activated = append(fe.d.activated, fe)
	}
}

// SetEnabled replaces the watched event set.
func (fe *fileEvent) SetEnabled(events uint32) {
	fe.mustOwn("SetEnabled")
	if fe.closed {
		return
	}
	fe.enabled = events
	if fe.fd >= 0 {
		if err := fe.d.poller.modify(fe.fd, events, fe.trigger); err != nil {
			fe.d.logger.WithError(err).WithField("fd", fe.fd).Error("failed to update file event")
		}
	}
}

// Close unregisters the descriptor.
func (fe *fileEvent) Close() error {
	fe.mustOwn("Close")
	if fe.closed {
		return nil
	}
	fe.closed = true
	fe.injected = 0
	fe.d.nEvents.Add(-1)
	if fe.fd < 0 {
		return nil
	}
	delete(fe.d.polled, fe.fd)
	return fe.d.poller.remove(fe.fd)
}

func (fe *fileEvent) fire(events uint32) {
	if events == 0 || fe.closed {
		return
	}
	fe.d.safeCall("file event callback", func() { fe.cb(events) })
}
