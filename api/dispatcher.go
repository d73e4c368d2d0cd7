// File: api/dispatcher.go
// Author: momentics <momentics@gmail.com>
//
// Contract of the single-goroutine reactor that owns readiness delivery.

package api

// FileReadyCb is invoked on the dispatcher goroutine with the ready event mask.
type FileReadyCb func(events uint32)

// FileEvent is a descriptor registration owned by a Dispatcher.
// All methods must be called on the owning dispatcher goroutine.
type FileEvent interface {
	// Activate injects events; the callback fires once in the next loop
	// iteration with all injected events OR-ed together.
	Activate(events uint32)

	// SetEnabled replaces the watched event set.
	SetEnabled(events uint32)

	// Close unregisters the descriptor. Pending injected events are discarded.
	Close() error
}

// Dispatcher is a single-goroutine event loop.
type Dispatcher interface {
	// Post enqueues fn to run on the dispatcher goroutine. Safe from any
	// goroutine. fn is dropped if the dispatcher has exited.
	Post(fn func())

	// IsThreadSafe reports whether the caller runs on the dispatcher goroutine.
	IsThreadSafe() bool

	// CreateFileEvent registers fd for readiness notifications.
	CreateFileEvent(fd int, cb FileReadyCb, trigger FileTriggerType, events uint32) (FileEvent, error)
}
