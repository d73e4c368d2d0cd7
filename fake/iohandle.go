// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// IoHandle is an in-memory api.IoHandle that counts every call reaching it,
// so tests can prove whether the real path of an interceptable handle ran.

package fake

import (
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-sockhook/api"
)

// Ensure compile-time interface compliance.
var _ api.IoHandle = (*IoHandle)(nil)

var nextFd atomic.Int64

func init() {
	nextFd.Store(1000)
}

// Datagram is one payload passed to Sendmsg.
type Datagram struct {
	Peer   netip.AddrPort
	SelfIP netip.Addr
	Data   []byte
}

// IoHandle is a fake implementation of api.IoHandle for testing.
type IoHandle struct {
	mu sync.Mutex

	fd     int
	v6only bool
	domain int
	open   bool

	written      []byte
	writeCalls   int
	sendCalls    int
	bytesWritten uint64
	datagrams    []Datagram
	writeErr     error
	writeLimit   int

	readData [][]byte

	peer  netip.AddrPort
	local netip.AddrPort

	pendingAccepts []*IoHandle
	accepted       []*IoHandle
	duplicates     []*IoHandle

	fileEvent     api.FileEvent
	registrations int
}

// NewIoHandle creates an open fake handle with a synthetic descriptor.
func NewIoHandle() *IoHandle {
	return &IoHandle{
		fd:         int(nextFd.Add(1)),
		open:       true,
		writeLimit: -1,
	}
}

// NewIoHandleFor matches the factory signature used to build real handles.
func NewIoHandleFor(fd int, v6only bool, domain int) api.IoHandle {
	h := NewIoHandle()
	h.fd = fd
	h.v6only = v6only
	h.domain = domain
	return h
}

// Fd implements api.IoHandle.Fd.
func (h *IoHandle) Fd() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return -1
	}
	return h.fd
}

// Close implements api.IoHandle.Close.
func (h *IoHandle) Close() error {
	h.ResetFileEvents()
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return api.ErrHandleClosed
	}
	h.open = false
	return nil
}

// IsOpen implements api.IoHandle.IsOpen.
func (h *IoHandle) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// V6Only implements api.IoHandle.V6Only.
func (h *IoHandle) V6Only() bool { return h.v6only }

// Domain implements api.IoHandle.Domain.
func (h *IoHandle) Domain() int { return h.domain }

// Readv implements api.IoHandle.Readv, draining data queued by AddReadData.
func (h *IoHandle) Readv(slices [][]byte) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return 0, api.ErrBadFd
	}
	if len(h.readData) == 0 {
		return 0, api.ErrAgain
	}
	var total uint64
	for _, s := range slices {
		for len(s) > 0 && len(h.readData) > 0 {
			n := copy(s, h.readData[0])
			s = s[n:]
			total += uint64(n)
			h.readData[0] = h.readData[0][n:]
			if len(h.readData[0]) == 0 {
				h.readData = h.readData[1:]
			}
		}
	}
	return total, nil
}

// Writev implements api.IoHandle.Writev.
func (h *IoHandle) Writev(slices [][]byte) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeCalls++
	if !h.open {
		return 0, api.ErrBadFd
	}
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	data := h.consume(slices)
	return uint64(len(data)), nil
}

// Sendmsg implements api.IoHandle.Sendmsg.
func (h *IoHandle) Sendmsg(slices [][]byte, _ int, selfIP netip.Addr, peer netip.AddrPort) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendCalls++
	if !h.open {
		return 0, api.ErrBadFd
	}
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	data := h.consume(slices)
	h.datagrams = append(h.datagrams, Datagram{Peer: peer, SelfIP: selfIP, Data: data})
	return uint64(len(data)), nil
}

// consume copies up to writeLimit bytes of slices into the written log.
func (h *IoHandle) consume(slices [][]byte) []byte {
	var data []byte
	for _, s := range slices {
		data = append(data, s...)
	}
	if h.writeLimit >= 0 && len(data) > h.writeLimit {
		data = data[:h.writeLimit]
	}
	h.written = append(h.written, data...)
	h.bytesWritten += uint64(len(data))
	return data
}

// Recvmsg implements api.IoHandle.Recvmsg using the configured peer as sender.
func (h *IoHandle) Recvmsg(slices [][]byte) (uint64, netip.AddrPort, error) {
	n, err := h.Readv(slices)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return n, h.peerAddr(), nil
}

func (h *IoHandle) peerAddr() netip.AddrPort {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peer
}

// Accept implements api.IoHandle.Accept, returning handles queued by QueueAccept.
func (h *IoHandle) Accept() (api.IoHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil, api.ErrBadFd
	}
	if len(h.pendingAccepts) == 0 {
		return nil, api.ErrAgain
	}
	child := h.pendingAccepts[0]
	h.pendingAccepts = h.pendingAccepts[1:]
	h.accepted = append(h.accepted, child)
	return child, nil
}

// Duplicate implements api.IoHandle.Duplicate.
func (h *IoHandle) Duplicate() (api.IoHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil, api.ErrBadFd
	}
	dup := NewIoHandle()
	dup.v6only = h.v6only
	dup.domain = h.domain
	dup.peer = h.peer
	dup.local = h.local
	h.duplicates = append(h.duplicates, dup)
	return dup, nil
}

// Bind implements api.IoHandle.Bind.
func (h *IoHandle) Bind(addr netip.AddrPort) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.local = addr
	return nil
}

// Listen implements api.IoHandle.Listen.
func (h *IoHandle) Listen(int) error { return nil }

// Connect implements api.IoHandle.Connect.
func (h *IoHandle) Connect(addr netip.AddrPort) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peer = addr
	return nil
}

// PeerAddress implements api.IoHandle.PeerAddress.
func (h *IoHandle) PeerAddress() (netip.AddrPort, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.peer.IsValid() {
		return netip.AddrPort{}, api.ErrNotFound
	}
	return h.peer, nil
}

// LocalAddress implements api.IoHandle.LocalAddress.
func (h *IoHandle) LocalAddress() (netip.AddrPort, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.local.IsValid() {
		return netip.AddrPort{}, api.ErrNotFound
	}
	return h.local, nil
}

// InitializeFileEvent implements api.IoHandle.InitializeFileEvent. The event
// is activation-only: nothing is polled for a fake descriptor.
func (h *IoHandle) InitializeFileEvent(d api.Dispatcher, cb api.FileReadyCb, trigger api.FileTriggerType, events uint32) error {
	h.ResetFileEvents()
	fe, err := d.CreateFileEvent(-1, cb, trigger, events)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.fileEvent = fe
	h.registrations++
	h.mu.Unlock()
	return nil
}

func (h *IoHandle) event() api.FileEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fileEvent
}

// ActivateFileEvents implements api.IoHandle.ActivateFileEvents.
func (h *IoHandle) ActivateFileEvents(events uint32) {
	if fe := h.event(); fe != nil {
		fe.Activate(events)
	}
}

// EnableFileEvents implements api.IoHandle.EnableFileEvents.
func (h *IoHandle) EnableFileEvents(events uint32) {
	if fe := h.event(); fe != nil {
		fe.SetEnabled(events)
	}
}

// ResetFileEvents implements api.IoHandle.ResetFileEvents.
func (h *IoHandle) ResetFileEvents() {
	h.mu.Lock()
	fe := h.fileEvent
	h.fileEvent = nil
	h.mu.Unlock()
	if fe != nil {
		_ = fe.Close()
	}
}
