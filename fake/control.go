// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import "net/netip"

// SetWriteError configures Writev and Sendmsg to fail with err.
func (h *IoHandle) SetWriteError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeErr = err
}

// SetWriteLimit caps the bytes accepted per write; negative means unlimited.
func (h *IoHandle) SetWriteLimit(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeLimit = n
}

// SetPeerAddress sets the bound peer reported by PeerAddress.
func (h *IoHandle) SetPeerAddress(ap netip.AddrPort) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peer = ap
}

// AddReadData queues data for Readv and Recvmsg.
func (h *IoHandle) AddReadData(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readData = append(h.readData, append([]byte(nil), data...))
}

// QueueAccept makes child the result of a later Accept.
func (h *IoHandle) QueueAccept(child *IoHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pendingAccepts = append(h.pendingAccepts, child)
}

// Written returns a copy of every byte the real write path accepted.
func (h *IoHandle) Written() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.written...)
}

// BytesWritten is the real-path byte counter.
func (h *IoHandle) BytesWritten() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bytesWritten
}

// WriteCalls counts Writev invocations that reached this handle.
func (h *IoHandle) WriteCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writeCalls
}

// SendCalls counts Sendmsg invocations that reached this handle.
func (h *IoHandle) SendCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sendCalls
}

// Datagrams returns the payloads passed to Sendmsg.
func (h *IoHandle) Datagrams() []Datagram {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Datagram, len(h.datagrams))
	copy(out, h.datagrams)
	return out
}

// Duplicates returns the handles produced by Duplicate.
func (h *IoHandle) Duplicates() []*IoHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*IoHandle(nil), h.duplicates...)
}

// Accepted returns the handles handed out by Accept.
func (h *IoHandle) Accepted() []*IoHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*IoHandle(nil), h.accepted...)
}

// Registrations counts InitializeFileEvent calls.
func (h *IoHandle) Registrations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registrations
}
