//go:build linux
// +build linux

// File: network/io_socket_handle_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux syscalls behind IoSocketHandle.

package network

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sockhook/api"
)

// Close releases the file event and the descriptor.
func (h *IoSocketHandle) Close() error {
	if !h.IsOpen() {
		return api.ErrHandleClosed
	}
	h.ResetFileEvents()
	fd := h.fd
	h.fd = -1
	return ioError(unix.Close(fd))
}

// Readv reads into slices. A zero count with nil error means end of stream.
func (h *IoSocketHandle) Readv(slices [][]byte) (uint64, error) {
	if !h.IsOpen() {
		return 0, api.ErrBadFd
	}
	n, err := unix.Readv(h.fd, slices)
	if err != nil {
		return 0, ioError(err)
	}
	return uint64(n), nil
}

// Writev writes slices with a single writev(2).
func (h *IoSocketHandle) Writev(slices [][]byte) (uint64, error) {
	if !h.IsOpen() {
		return 0, api.ErrBadFd
	}
	n, err := unix.Writev(h.fd, slices)
	if err != nil {
		return 0, ioError(err)
	}
	return uint64(n), nil
}

// Sendmsg sends slices to peer. A valid selfIP selects the source address
// through IP_PKTINFO / IPV6_PKTINFO.
func (h *IoSocketHandle) Sendmsg(slices [][]byte, flags int, selfIP netip.Addr, peer netip.AddrPort) (uint64, error) {
	if !h.IsOpen() {
		return 0, api.ErrBadFd
	}
	sa, err := sockaddrFor(peer, h.domain)
	if err != nil {
		return 0, err
	}
	var oob []byte
	if selfIP.IsValid() {
		oob = pktInfo(selfIP, h.domain)
	}
	n, err := unix.SendmsgBuffers(h.fd, slices, oob, sa, flags)
	if err != nil {
		return 0, ioError(err)
	}
	return uint64(n), nil
}

func pktInfo(selfIP netip.Addr, domain int) []byte {
	if domain != unix.AF_INET6 && selfIP.Unmap().Is4() {
		return unix.PktInfo4(&unix.Inet4Pktinfo{Spec_dst: selfIP.Unmap().As4()})
	}
	return unix.PktInfo6(&unix.Inet6Pktinfo{Addr: selfIP.As16()})
}

// Recvmsg reads one datagram and reports the sender.
func (h *IoSocketHandle) Recvmsg(slices [][]byte) (uint64, netip.AddrPort, error) {
	if !h.IsOpen() {
		return 0, netip.AddrPort{}, api.ErrBadFd
	}
	n, _, _, from, err := unix.RecvmsgBuffers(h.fd, slices, nil, 0)
	if err != nil {
		return 0, netip.AddrPort{}, ioError(err)
	}
	peer, _ := addrPortFromSockaddr(from)
	return uint64(n), peer, nil
}

// Accept returns the next pending connection as a non-blocking handle.
func (h *IoSocketHandle) Accept() (api.IoHandle, error) {
	if !h.IsOpen() {
		return nil, api.ErrBadFd
	}
	nfd, _, err := unix.Accept4(h.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, ioError(err)
	}
	return NewIoSocketHandle(nfd, h.v6only, h.domain), nil
}

// Duplicate returns a handle on a CLOEXEC dup of the descriptor.
func (h *IoSocketHandle) Duplicate() (api.IoHandle, error) {
	if !h.IsOpen() {
		return nil, api.ErrBadFd
	}
	nfd, err := unix.FcntlInt(uintptr(h.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, ioError(err)
	}
	return NewIoSocketHandle(nfd, h.v6only, h.domain), nil
}

// Bind binds the socket to addr.
func (h *IoSocketHandle) Bind(addr netip.AddrPort) error {
	sa, err := sockaddrFor(addr, h.domain)
	if err != nil {
		return err
	}
	return ioError(unix.Bind(h.fd, sa))
}

// Listen marks the socket as passive.
func (h *IoSocketHandle) Listen(backlog int) error {
	return ioError(unix.Listen(h.fd, backlog))
}

// Connect starts a connection; on a non-blocking socket the usual result is
// an IoErrorInProgress error.
func (h *IoSocketHandle) Connect(addr netip.AddrPort) error {
	sa, err := sockaddrFor(addr, h.domain)
	if err != nil {
		return err
	}
	return ioError(unix.Connect(h.fd, sa))
}

// PeerAddress returns the connected peer.
func (h *IoSocketHandle) PeerAddress() (netip.AddrPort, error) {
	sa, err := unix.Getpeername(h.fd)
	if err != nil {
		return netip.AddrPort{}, ioError(err)
	}
	return addrPortFromSockaddr(sa)
}

// LocalAddress returns the bound address.
func (h *IoSocketHandle) LocalAddress() (netip.AddrPort, error) {
	sa, err := unix.Getsockname(h.fd)
	if err != nil {
		return netip.AddrPort{}, ioError(err)
	}
	return addrPortFromSockaddr(sa)
}
