//go:build !linux
// +build !linux

// File: network/io_socket_handle_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub syscalls for platforms without a backend.

package network

import (
	"net/netip"

	"github.com/momentics/hioload-sockhook/api"
)

func (h *IoSocketHandle) Close() error {
	if !h.IsOpen() {
		return api.ErrHandleClosed
	}
	h.ResetFileEvents()
	h.fd = -1
	return nil
}

func (h *IoSocketHandle) Readv([][]byte) (uint64, error)  { return 0, api.ErrNotSupported }
func (h *IoSocketHandle) Writev([][]byte) (uint64, error) { return 0, api.ErrNotSupported }

func (h *IoSocketHandle) Sendmsg([][]byte, int, netip.Addr, netip.AddrPort) (uint64, error) {
	return 0, api.ErrNotSupported
}

func (h *IoSocketHandle) Recvmsg([][]byte) (uint64, netip.AddrPort, error) {
	return 0, netip.AddrPort{}, api.ErrNotSupported
}

func (h *IoSocketHandle) Accept() (api.IoHandle, error)    { return nil, api.ErrNotSupported }
func (h *IoSocketHandle) Duplicate() (api.IoHandle, error) { return nil, api.ErrNotSupported }
func (h *IoSocketHandle) Bind(netip.AddrPort) error        { return api.ErrNotSupported }
func (h *IoSocketHandle) Listen(int) error                 { return api.ErrNotSupported }
func (h *IoSocketHandle) Connect(netip.AddrPort) error     { return api.ErrNotSupported }

func (h *IoSocketHandle) PeerAddress() (netip.AddrPort, error) {
	return netip.AddrPort{}, api.ErrNotSupported
}

func (h *IoSocketHandle) LocalAddress() (netip.AddrPort, error) {
	return netip.AddrPort{}, api.ErrNotSupported
}
