// Package testsock provides examples for interceptable socket handles.
package testsock_test

import (
	"fmt"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/fake"
	"github.com/momentics/hioload-sockhook/testsock"
)

func ExampleNewSocketInterface() {
	// Pretend the upstream connection only takes 42 bytes at a time.
	s := testsock.NewSocketInterface(
		func(h *testsock.Handle, _ [][]byte) (api.IoResult, bool) {
			if h.Index() != 1 {
				return api.IoResult{}, false
			}
			return api.Ok[uint64](42), true
		},
		testsock.WithRealHandle(fake.NewIoHandleFor),
	)

	client, _ := s.MakeSocket(10, false, 0)
	upstream, _ := s.MakeSocket(11, false, 0)

	buf := [][]byte{make([]byte, 100)}
	n, _ := client.Writev(buf)
	fmt.Println("client:", n)
	n, _ = upstream.Writev(buf)
	fmt.Println("upstream:", n)

	// Output:
	// client: 100
	// upstream: 42
}
