// File: testsock/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle wraps a real api.IoHandle and intercepts its write-family calls.

package testsock

import (
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/containerd/log"
	"github.com/google/uuid"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/control"
	"github.com/momentics/hioload-sockhook/network"
)

// WriteOverrideFunc inspects a write before it reaches the real handle.
// Returning ok == true short-circuits the call with result; the real write
// never happens. Returning ok == false lets the real write run.
type WriteOverrideFunc func(h *Handle, slices [][]byte) (result api.IoResult, ok bool)

// Ensure compile-time interface compliance.
var _ api.IoHandle = (*Handle)(nil)

// Handle is an interceptable api.IoHandle. Methods other than Writev,
// Sendmsg, PeerAddress, InitializeFileEvent, Accept, Duplicate and Close go
// straight to the embedded real handle.
//
// Like the real handle, a Handle belongs to its dispatcher goroutine. The
// exception is ActivateInDispatcherThread, which any goroutine may call.
type Handle struct {
	api.IoHandle

	lineage *lineage
	index   uint64
	id      uuid.UUID
	closed  atomic.Bool

	mu         sync.Mutex
	dispatcher api.Dispatcher // guarded by mu; not owned

	// Dispatcher goroutine only.
	peer    netip.AddrPort
	hasPeer bool
}

// NewHandle wraps descriptor fd in a real network handle bound to override.
// domain is the address-family hint, 0 for none.
func NewHandle(override WriteOverrideFunc, fd int, v6only bool, domain int) *Handle {
	return WrapHandle(override, network.NewIoSocketHandle(fd, v6only, domain))
}

// WrapHandle binds an existing real handle to override. Handles accepted or
// duplicated from the result share override and the creation counter.
func WrapHandle(override WriteOverrideFunc, real api.IoHandle) *Handle {
	l := &lineage{override: override}
	return l.spawn(real, control.OriginMakeSocket)
}

// Index is the creation order of the handle within its lineage, starting at 0.
func (h *Handle) Index() uint64 { return h.index }

// ID identifies the handle in logs.
func (h *Handle) ID() uuid.UUID { return h.id }

// Override returns the callback shared by this handle and its descendants.
func (h *Handle) Override() WriteOverrideFunc { return h.lineage.override }

// Registered reports whether InitializeFileEvent has been called.
func (h *Handle) Registered() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dispatcher != nil
}

func (h *Handle) intercept(op string, slices [][]byte) (api.IoResult, bool) {
	if h.lineage.override != nil {
		if res, ok := h.lineage.override(h, slices); ok {
			h.lineage.metrics.Write(op, control.PathOverride)
			return res, true
		}
	}
	h.lineage.metrics.Write(op, control.PathReal)
	return api.IoResult{}, false
}

// Writev returns the override result when there is one, otherwise the real
// handle's result, unmodified either way.
func (h *Handle) Writev(slices [][]byte) (uint64, error) {
	if res, ok := h.intercept(control.OpWritev, slices); ok {
		return res.Unpack()
	}
	return h.IoHandle.Writev(slices)
}

// Sendmsg remembers peer for PeerAddress, then behaves like Writev.
func (h *Handle) Sendmsg(slices [][]byte, flags int, selfIP netip.Addr, peer netip.AddrPort) (uint64, error) {
	h.peer = peer
	h.hasPeer = true
	if res, ok := h.intercept(control.OpSendmsg, slices); ok {
		return res.Unpack()
	}
	return h.IoHandle.Sendmsg(slices, flags, selfIP, peer)
}

// PeerAddress returns the destination of the most recent Sendmsg if there was
// one, otherwise the real handle's bound peer. Connectionless sockets have no
// bound peer and learn it per send.
func (h *Handle) PeerAddress() (netip.AddrPort, error) {
	if h.hasPeer {
		return netip.AddrPortFrom(h.peer.Addr(), h.peer.Port()), nil
	}
	return h.IoHandle.PeerAddress()
}

// InitializeFileEvent records d for ActivateInDispatcherThread and registers
// with it through the real handle. Calling it again replaces d.
func (h *Handle) InitializeFileEvent(d api.Dispatcher, cb api.FileReadyCb, trigger api.FileTriggerType, events uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = d
	return h.IoHandle.InitializeFileEvent(d, cb, trigger, events)
}

// ActivateInDispatcherThread posts an activation of events to the handle's
// dispatcher. Safe to call from any goroutine. Calling it before
// InitializeFileEvent is a harness bug and terminates the process.
//
// Nothing stops the handle from being closed before the posted task runs.
// The task checks for that and drops the activation; callers still have to
// keep the dispatcher alive until it runs or accept that it is discarded.
func (h *Handle) ActivateInDispatcherThread(events uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	logger := log.L.WithFields(log.Fields{
		"handle": h.id,
		"index":  h.index,
		"events": api.EventString(events),
	})
	if h.dispatcher == nil {
		logger.Fatal("activation requested on a handle with no dispatcher")
		return
	}
	metrics := h.lineage.metrics
	metrics.Activation(control.ActivationPosted)
	h.dispatcher.Post(func() {
		if h.closed.Load() {
			metrics.Activation(control.ActivationDropped)
			logger.Debug("dropping activation for closed handle")
			return
		}
		metrics.Activation(control.ActivationDelivered)
		h.ActivateFileEvents(events)
	})
}

// Accept wraps the accepted connection in a Handle sharing this handle's
// override.
func (h *Handle) Accept() (api.IoHandle, error) {
	child, err := h.IoHandle.Accept()
	if err != nil {
		return nil, err
	}
	return h.lineage.spawn(child, control.OriginAccept), nil
}

// Duplicate wraps the duplicated descriptor in a Handle sharing this
// handle's override.
func (h *Handle) Duplicate() (api.IoHandle, error) {
	dup, err := h.IoHandle.Duplicate()
	if err != nil {
		return nil, err
	}
	return h.lineage.spawn(dup, control.OriginDuplicate), nil
}

// Close marks the handle closed for pending activations, then closes the
// real handle.
func (h *Handle) Close() error {
	h.closed.Store(true)
	return h.IoHandle.Close()
}
