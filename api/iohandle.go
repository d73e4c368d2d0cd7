// File: api/iohandle.go
// Author: momentics <momentics@gmail.com>
//
// Defines the socket handle abstraction (IoHandle) consumed by connection
// and acceptance code, independent of whether the I/O is real or simulated.

package api

import "net/netip"

// IoResult is the outcome of a single I/O call: bytes transferred and error.
type IoResult = Result[uint64]

// IoHandle abstracts one OS-level socket descriptor.
//
// Slices passed to Writev, Readv, Sendmsg and Recvmsg are scatter/gather
// regions; the slice count is len(slices).
type IoHandle interface {
	// Fd returns the underlying descriptor, or -1 once closed.
	Fd() int

	// Close releases the descriptor and any file event bound to it.
	Close() error

	// IsOpen reports whether Close has not been called yet.
	IsOpen() bool

	// V6Only reports the dual-stack flag the handle was created with.
	V6Only() bool

	// Domain returns the address-family hint, or 0 when none was supplied.
	Domain() int

	// Readv reads into slices.
	Readv(slices [][]byte) (uint64, error)

	// Writev writes slices on a connected socket.
	Writev(slices [][]byte) (uint64, error)

	// Sendmsg writes slices to peer on a connectionless socket.
	Sendmsg(slices [][]byte, flags int, selfIP netip.Addr, peer netip.AddrPort) (uint64, error)

	// Recvmsg reads one datagram into slices and reports its sender.
	Recvmsg(slices [][]byte) (uint64, netip.AddrPort, error)

	// Accept returns the next pending connection on a listening socket.
	Accept() (IoHandle, error)

	// Duplicate returns a handle on a dup'ed descriptor.
	Duplicate() (IoHandle, error)

	// Bind, Listen and Connect mirror the socket syscalls.
	Bind(addr netip.AddrPort) error
	Listen(backlog int) error
	Connect(addr netip.AddrPort) error

	// PeerAddress returns the remote endpoint of the socket.
	PeerAddress() (netip.AddrPort, error)

	// LocalAddress returns the bound endpoint of the socket.
	LocalAddress() (netip.AddrPort, error)

	// InitializeFileEvent registers the descriptor with d. cb is always
	// invoked on d's goroutine.
	InitializeFileEvent(d Dispatcher, cb FileReadyCb, trigger FileTriggerType, events uint32) error

	// ActivateFileEvents injects events into the registered file event.
	// Must run on the dispatcher goroutine.
	ActivateFileEvents(events uint32)

	// EnableFileEvents changes the set of events being watched.
	EnableFileEvents(events uint32)

	// ResetFileEvents drops the registered file event.
	ResetFileEvents()
}
