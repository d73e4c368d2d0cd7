// File: api/io_error.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable socket error codes. Real handles translate errno values into
// IoError; write overrides return IoError to simulate a specific failure.

package api

import (
	"errors"
	"fmt"
	"syscall"
)

// IoErrorCode classifies socket failures independent of the platform errno.
type IoErrorCode int

const (
	IoErrorUnknown IoErrorCode = iota
	IoErrorAgain
	IoErrorNoSupport
	IoErrorAddressFamilyNoSupport
	IoErrorInProgress
	IoErrorPermission
	IoErrorMessageTooBig
	IoErrorInterrupt
	IoErrorAddressNotAvailable
	IoErrorBadFd
	IoErrorConnectionReset
	IoErrorNetworkUnreachable
)

var ioErrorNames = map[IoErrorCode]string{
	IoErrorUnknown:                "unknown",
	IoErrorAgain:                  "again",
	IoErrorNoSupport:              "no_support",
	IoErrorAddressFamilyNoSupport: "address_family_no_support",
	IoErrorInProgress:             "in_progress",
	IoErrorPermission:             "permission",
	IoErrorMessageTooBig:          "message_too_big",
	IoErrorInterrupt:              "interrupt",
	IoErrorAddressNotAvailable:    "address_not_available",
	IoErrorBadFd:                  "bad_fd",
	IoErrorConnectionReset:        "connection_reset",
	IoErrorNetworkUnreachable:     "network_unreachable",
}

func (c IoErrorCode) String() string {
	if name, ok := ioErrorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("io_error(%d)", int(c))
}

// IoError is a socket failure with its portable code and raw errno.
type IoError struct {
	Code  IoErrorCode
	Errno syscall.Errno
}

// NewIoError builds an IoError. errno may be zero for simulated failures.
func NewIoError(code IoErrorCode, errno syscall.Errno) *IoError {
	return &IoError{Code: code, Errno: errno}
}

func (e *IoError) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("io error %s: %v", e.Code, e.Errno)
	}
	return fmt.Sprintf("io error %s", e.Code)
}

// Is matches another IoError with the same code, so that
// errors.Is(err, ErrAgain) works for both real and simulated results.
func (e *IoError) Is(target error) bool {
	var other *IoError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// Unwrap exposes the raw errno when there is one.
func (e *IoError) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// Sentinel IoErrors for errors.Is checks.
var (
	ErrAgain           = NewIoError(IoErrorAgain, 0)
	ErrBadFd           = NewIoError(IoErrorBadFd, 0)
	ErrConnectionReset = NewIoError(IoErrorConnectionReset, 0)
	ErrMessageTooBig   = NewIoError(IoErrorMessageTooBig, 0)
)

// IoErrorCodeOf extracts the IoErrorCode of err, or IoErrorUnknown.
func IoErrorCodeOf(err error) IoErrorCode {
	var ioErr *IoError
	if errors.As(err, &ioErr) {
		return ioErr.Code
	}
	return IoErrorUnknown
}
