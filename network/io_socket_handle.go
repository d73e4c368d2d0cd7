// File: network/io_socket_handle.go
// Author: momentics <momentics@gmail.com>
//
// Platform-independent part of IoSocketHandle: identity and file-event plumbing.

package network

import (
	"github.com/containerd/log"

	"github.com/momentics/hioload-sockhook/api"
)

// Ensure compile-time interface compliance.
var _ api.IoHandle = (*IoSocketHandle)(nil)

// IoSocketHandle is the real api.IoHandle over an OS descriptor.
// It is not safe for concurrent use; callers confine it to one dispatcher.
type IoSocketHandle struct {
	fd        int
	v6only    bool
	domain    int
	fileEvent api.FileEvent
}

// NewIoSocketHandle takes ownership of fd. domain is the address-family hint,
// 0 when unknown.
func NewIoSocketHandle(fd int, v6only bool, domain int) *IoSocketHandle {
	return &IoSocketHandle{fd: fd, v6only: v6only, domain: domain}
}

// Fd returns the descriptor, or -1 once closed.
func (h *IoSocketHandle) Fd() int { return h.fd }

// IsOpen reports whether the descriptor is still owned.
func (h *IoSocketHandle) IsOpen() bool { return h.fd != -1 }

// V6Only reports the dual-stack flag.
func (h *IoSocketHandle) V6Only() bool { return h.v6only }

// Domain returns the address-family hint.
func (h *IoSocketHandle) Domain() int { return h.domain }

// InitializeFileEvent registers the descriptor with d, replacing any earlier
// registration.
func (h *IoSocketHandle) InitializeFileEvent(d api.Dispatcher, cb api.FileReadyCb, trigger api.FileTriggerType, events uint32) error {
	if !h.IsOpen() {
		return api.ErrHandleClosed
	}
	h.ResetFileEvents()
	fe, err := d.CreateFileEvent(h.fd, cb, trigger, events)
	if err != nil {
		return err
	}
	h.fileEvent = fe
	return nil
}

// ActivateFileEvents injects events into the registered file event.
func (h *IoSocketHandle) ActivateFileEvents(events uint32) {
	if h.fileEvent == nil {
		log.L.WithError(api.ErrNoFileEvent).WithField("fd", h.fd).Warn("dropping activation")
		return
	}
	h.fileEvent.Activate(events)
}

// EnableFileEvents changes the watched event set.
func (h *IoSocketHandle) EnableFileEvents(events uint32) {
	if h.fileEvent != nil {
		h.fileEvent.SetEnabled(events)
	}
}

// ResetFileEvents drops the registered file event.
func (h *IoSocketHandle) ResetFileEvents() {
	if h.fileEvent == nil {
		return
	}
	if err := h.fileEvent.Close(); err != nil {
		log.L.WithError(err).WithField("fd", h.fd).Debug("closing file event")
	}
	h.fileEvent = nil
}
