package testsock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/moby/sys/reexec"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/fake"
	"github.com/momentics/hioload-sockhook/reactor"
	"github.com/momentics/hioload-sockhook/testsock"
)

const activateUnregistered = "testsock-activate-unregistered"

func init() {
	reexec.Register(activateUnregistered, func() {
		h := testsock.WrapHandle(nil, fake.NewIoHandle())
		h.ActivateInDispatcherThread(api.EventRead)
		// Reaching this point means the misuse went unnoticed.
		os.Exit(0)
	})
}

func TestMain(m *testing.M) {
	if reexec.Init() {
		return
	}
	os.Exit(m.Run())
}

// startDispatcher runs a dispatcher on its own goroutine for the test's lifetime.
func startDispatcher(t *testing.T, opts ...reactor.Option) *reactor.Dispatcher {
	t.Helper()
	d, err := reactor.NewDispatcher(opts...)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-d.Done()
		_ = d.Close()
	})
	select {
	case <-d.Started():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not start")
	}
	return d
}

// onDispatcher runs fn on the dispatcher goroutine and waits for it.
func onDispatcher(t *testing.T, d api.Dispatcher, fn func()) {
	t.Helper()
	done := make(chan struct{})
	d.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatcher task")
	}
}

// firing is one readiness callback observed by a test.
type firing struct {
	events       uint32
	onDispatcher bool
}

func recordFirings(d api.Dispatcher, ch chan<- firing) api.FileReadyCb {
	return func(events uint32) {
		ch <- firing{events: events, onDispatcher: d.IsThreadSafe()}
	}
}

func fixed(n uint64, err error) testsock.WriteOverrideFunc {
	return func(*testsock.Handle, [][]byte) (api.IoResult, bool) {
		return api.Fail(n, err), true
	}
}

func passThrough(*testsock.Handle, [][]byte) (api.IoResult, bool) {
	return api.IoResult{}, false
}
