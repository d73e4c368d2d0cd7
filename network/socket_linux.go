//go:build linux
// +build linux

// File: network/socket_linux.go
// Author: momentics <momentics@gmail.com>

package network

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sockhook/api"
)

// openSocket creates a non-blocking CLOEXEC socket. AF_INET6 sockets are
// opened dual-stack.
func openSocket(sockType api.SocketType, family int) (fd int, v6only bool, err error) {
	var typ int
	switch sockType {
	case api.SocketStream:
		typ = unix.SOCK_STREAM
	case api.SocketDatagram:
		typ = unix.SOCK_DGRAM
	default:
		return -1, false, api.NewError(api.ErrCodeNotSupported, "unsupported socket type").
			WithContext("type", int(sockType)).
			Wrap(api.ErrNotSupported)
	}
	fd, err = unix.Socket(family, typ|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, false, fmt.Errorf("socket(%d, %d): %w", family, typ, ioError(err))
	}
	if family == unix.AF_INET6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			_ = unix.Close(fd)
			return -1, false, fmt.Errorf("clear IPV6_V6ONLY: %w", ioError(err))
		}
	}
	if sockType == api.SocketStream {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}
	return fd, false, nil
}

func closeFd(fd int) {
	_ = unix.Close(fd)
}

// Socketpair returns two connected AF_UNIX stream handles.
func Socketpair() (*IoSocketHandle, *IoSocketHandle, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", ioError(err))
	}
	return NewIoSocketHandle(fds[0], false, unix.AF_UNIX), NewIoSocketHandle(fds[1], false, unix.AF_UNIX), nil
}
