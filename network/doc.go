// File: network/doc.go
// Package network
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Real platform socket handles. IoSocketHandle performs scatter/gather I/O,
// accept and dup directly on a descriptor through golang.org/x/sys/unix and
// reports failures as *api.IoError. SocketInterfaceImpl opens descriptors and
// hands them to a pluggable api.SocketMaker, which is how interceptable
// handles get inserted under connection code.
//
// Linux is the only platform with a working backend; elsewhere every syscall
// returns api.ErrNotSupported.
package network
