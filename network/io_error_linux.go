//go:build linux
// +build linux

// File: network/io_error_linux.go
// Author: momentics <momentics@gmail.com>

package network

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sockhook/api"
)

var errnoCodes = map[unix.Errno]api.IoErrorCode{
	unix.EAGAIN:        api.IoErrorAgain,
	unix.ENOTSUP:       api.IoErrorNoSupport,
	unix.EAFNOSUPPORT:  api.IoErrorAddressFamilyNoSupport,
	unix.EINPROGRESS:   api.IoErrorInProgress,
	unix.EPERM:         api.IoErrorPermission,
	unix.EACCES:        api.IoErrorPermission,
	unix.EMSGSIZE:      api.IoErrorMessageTooBig,
	unix.EINTR:         api.IoErrorInterrupt,
	unix.EADDRNOTAVAIL: api.IoErrorAddressNotAvailable,
	unix.EBADF:         api.IoErrorBadFd,
	unix.ECONNRESET:    api.IoErrorConnectionReset,
	unix.EPIPE:         api.IoErrorConnectionReset,
	unix.ENETUNREACH:   api.IoErrorNetworkUnreachable,
}

// ioError converts a syscall failure into *api.IoError.
func ioError(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}
	code, ok := errnoCodes[errno]
	if !ok {
		code = api.IoErrorUnknown
	}
	return api.NewIoError(code, errno)
}
