// File: network/socket_interface.go
// Author: momentics <momentics@gmail.com>
//
// Socket creation machinery with a pluggable SocketMaker.

package network

import (
	"github.com/momentics/hioload-sockhook/api"
)

// Ensure compile-time interface compliance.
var _ api.SocketInterface = (*SocketInterfaceImpl)(nil)

// SocketInterfaceImpl opens descriptors and wraps them with its maker.
type SocketInterfaceImpl struct {
	maker api.SocketMaker
}

// NewSocketInterface returns socket-creation machinery that wraps every new
// descriptor through maker. A nil maker produces plain IoSocketHandles.
func NewSocketInterface(maker api.SocketMaker) *SocketInterfaceImpl {
	s := &SocketInterfaceImpl{maker: maker}
	if maker == nil {
		s.maker = s
	}
	return s
}

// MakeSocket wraps fd in a real IoSocketHandle.
func (s *SocketInterfaceImpl) MakeSocket(fd int, v6only bool, domain int) (api.IoHandle, error) {
	return NewIoSocketHandle(fd, v6only, domain), nil
}

// Socket opens a non-blocking descriptor and hands it to the maker.
func (s *SocketInterfaceImpl) Socket(sockType api.SocketType, family int) (api.IoHandle, error) {
	fd, v6only, err := openSocket(sockType, family)
	if err != nil {
		return nil, err
	}
	h, err := s.maker.MakeSocket(fd, v6only, family)
	if err != nil {
		closeFd(fd)
		return nil, err
	}
	return h, nil
}
