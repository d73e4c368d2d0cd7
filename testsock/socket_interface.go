// File: testsock/socket_interface.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SocketInterface produces interceptable handles for socket-creation code.
// Integration tests usually see a deterministic accept order, e.g. one client
// connection yields the client<->proxy socket first and the proxy<->upstream
// socket second, so handles can be addressed by creation index.

package testsock

import (
	"sort"
	"sync"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/control"
	"github.com/momentics/hioload-sockhook/network"
)

// RealHandleFunc builds the real handle for a descriptor.
type RealHandleFunc func(fd int, v6only bool, domain int) api.IoHandle

// Ensure compile-time interface compliance.
var _ api.SocketInterface = (*SocketInterface)(nil)

// SocketInterface is a factory of Handles bound to one WriteOverrideFunc.
type SocketInterface struct {
	name    string
	lineage *lineage
	newReal RealHandleFunc
	sockets *network.SocketInterfaceImpl
	probes  *control.DebugProbes

	mu      sync.Mutex
	handles []*Handle
}

// Option customizes a SocketInterface.
type Option func(*SocketInterface)

// WithRealHandle replaces the real handle constructor, e.g. with an
// instrumented fake.
func WithRealHandle(fn RealHandleFunc) Option {
	return func(s *SocketInterface) {
		s.newReal = fn
	}
}

// WithMetrics records writes, handle creation and activations.
func WithMetrics(m *control.Metrics) Option {
	return func(s *SocketInterface) {
		s.lineage.metrics = m
	}
}

// WithName labels the factory's debug probe. Defaults to "testsock".
func WithName(name string) Option {
	return func(s *SocketInterface) {
		s.name = name
	}
}

// WithProbes registers a "<name>.handles" probe.
func WithProbes(p *control.DebugProbes) Option {
	return func(s *SocketInterface) {
		s.probes = p
	}
}

// NewSocketInterface returns a factory whose handles consult override on
// every Writev and Sendmsg. A nil override never intercepts.
func NewSocketInterface(override WriteOverrideFunc, opts ...Option) *SocketInterface {
	s := &SocketInterface{
		name:    "testsock",
		lineage: &lineage{override: override},
		newReal: func(fd int, v6only bool, domain int) api.IoHandle {
			return network.NewIoSocketHandle(fd, v6only, domain)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lineage.created = s.track
	s.sockets = network.NewSocketInterface(s)
	s.probes.RegisterProbe(s.probeName(), func() any { return len(s.Handles()) })
	return s
}

func (s *SocketInterface) probeName() string { return s.name + ".handles" }

// Close unregisters the factory's probe. Handles it created stay usable.
func (s *SocketInterface) Close() {
	s.probes.UnregisterProbe(s.probeName())
}

// MakeSocket wraps fd in a new Handle. Called for every created or accepted
// descriptor; the returned value is always a *Handle.
func (s *SocketInterface) MakeSocket(fd int, v6only bool, domain int) (api.IoHandle, error) {
	return s.lineage.spawn(s.newReal(fd, v6only, domain), control.OriginMakeSocket), nil
}

// Socket opens a descriptor and wraps it through MakeSocket.
func (s *SocketInterface) Socket(sockType api.SocketType, family int) (api.IoHandle, error) {
	return s.sockets.Socket(sockType, family)
}

// Override returns the callback bound to every handle of this factory.
func (s *SocketInterface) Override() WriteOverrideFunc { return s.lineage.override }

// Handle returns the handle created index-th, counting from 0 across
// MakeSocket, Accept and Duplicate.
func (s *SocketInterface) Handle(index uint64) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		if h.index == index {
			return h, true
		}
	}
	return nil, false
}

// Handles returns all handles in creation order.
func (s *SocketInterface) Handles() []*Handle {
	s.mu.Lock()
	out := append([]*Handle(nil), s.handles...)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func (s *SocketInterface) track(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = append(s.handles, h)
}
