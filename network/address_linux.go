//go:build linux
// +build linux

// File: network/address_linux.go
// Author: momentics <momentics@gmail.com>
//
// Conversions between unix.Sockaddr and netip.AddrPort.

package network

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sockhook/api"
)

func addrPortFromSockaddr(sa unix.Sockaddr) (netip.AddrPort, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port)), nil
	case nil:
		return netip.AddrPort{}, api.ErrNotFound
	default:
		return netip.AddrPort{}, api.NewIoError(api.IoErrorAddressFamilyNoSupport, unix.EAFNOSUPPORT)
	}
}

// sockaddrFor builds the sockaddr for ap on a socket of the given domain.
// IPv4 peers on an AF_INET6 socket are v4-mapped.
func sockaddrFor(ap netip.AddrPort, domain int) (unix.Sockaddr, error) {
	if !ap.IsValid() {
		return nil, api.ErrInvalidArgument
	}
	addr := ap.Addr()
	if domain != unix.AF_INET6 && addr.Unmap().Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.Unmap().As4()}, nil
	}
	if domain == unix.AF_INET {
		return nil, api.NewIoError(api.IoErrorAddressFamilyNoSupport, unix.EAFNOSUPPORT)
	}
	return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}, nil
}
