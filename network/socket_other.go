//go:build !linux
// +build !linux

// File: network/socket_other.go
// Author: momentics <momentics@gmail.com>

package network

import "github.com/momentics/hioload-sockhook/api"

func openSocket(_ api.SocketType, family int) (int, bool, error) {
	return -1, false, api.NewError(api.ErrCodeNotSupported, "no socket backend on this platform").
		WithContext("family", family).
		Wrap(api.ErrNotSupported)
}

func closeFd(int) {}

// Socketpair is not available on this platform.
func Socketpair() (*IoSocketHandle, *IoSocketHandle, error) {
	return nil, nil, api.ErrNotSupported
}
