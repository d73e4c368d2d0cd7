// File: api/socket_interface.go
// Author: momentics <momentics@gmail.com>
//
// Socket creation contracts shared by the real and interceptable handles.

package api

// SocketType selects stream or datagram sockets.
type SocketType int

const (
	SocketStream SocketType = iota
	SocketDatagram
)

// SocketMaker wraps a freshly created or accepted descriptor into an IoHandle.
// domain is the address-family hint; 0 means none.
type SocketMaker interface {
	MakeSocket(fd int, v6only bool, domain int) (IoHandle, error)
}

// SocketInterface creates sockets and hands their descriptors to a SocketMaker.
type SocketInterface interface {
	SocketMaker

	// Socket opens a new non-blocking descriptor of sockType in family.
	Socket(sockType SocketType, family int) (IoHandle, error)
}
