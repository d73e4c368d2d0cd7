// File: reactor/goid.go
// Author: momentics <momentics@gmail.com>

package reactor

import "runtime"

// goroutineID parses the current goroutine id from the stack header
// ("goroutine NNN [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
