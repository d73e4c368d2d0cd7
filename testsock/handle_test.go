package testsock_test

import (
	"bytes"
	"errors"
	"net/netip"
	"os/exec"
	"testing"
	"time"

	"github.com/moby/sys/reexec"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/fake"
	"github.com/momentics/hioload-sockhook/testsock"
)

func payload(n int) [][]byte {
	return [][]byte{bytes.Repeat([]byte{'x'}, n/2), bytes.Repeat([]byte{'y'}, n-n/2)}
}

func TestWritev_OverrideResultIsReturnedVerbatim(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Uint64().Draw(rt, "n")
		code := api.IoErrorCode(rapid.IntRange(0, int(api.IoErrorNetworkUnreachable)).Draw(rt, "code"))
		withErr := rapid.Bool().Draw(rt, "withErr")
		size := rapid.IntRange(0, 512).Draw(rt, "size")

		var wantErr error
		if withErr {
			wantErr = api.NewIoError(code, 0)
		}
		real := fake.NewIoHandle()
		h := testsock.WrapHandle(fixed(n, wantErr), real)

		got, err := h.Writev(payload(size))
		require.Equal(rt, n, got)
		require.True(rt, err == wantErr, "error identity changed: %v vs %v", err, wantErr)
		require.Zero(rt, real.WriteCalls())
		require.Zero(rt, real.BytesWritten())
	})
}

func TestWritev_DelegatesWhenOverrideDeclines(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(0, 512).Draw(rt, "size")
		limit := rapid.IntRange(-1, 512).Draw(rt, "limit")

		reference := fake.NewIoHandle()
		reference.SetWriteLimit(limit)
		wantN, wantErr := reference.Writev(payload(size))

		real := fake.NewIoHandle()
		real.SetWriteLimit(limit)
		h := testsock.WrapHandle(passThrough, real)

		got, err := h.Writev(payload(size))
		require.Equal(rt, wantN, got)
		require.Equal(rt, wantErr, err)
		require.Equal(rt, 1, real.WriteCalls())
		require.Equal(rt, reference.Written(), real.Written())
	})
}

func TestWritev_RealErrorPassesThrough(t *testing.T) {
	real := fake.NewIoHandle()
	real.SetWriteError(api.ErrConnectionReset)
	h := testsock.WrapHandle(nil, real)

	n, err := h.Writev(payload(10))
	assert.Zero(t, n)
	assert.Same(t, api.ErrConnectionReset, err)
}

func TestWritev_OverrideSeesHandleAndSlices(t *testing.T) {
	var seenHandle *testsock.Handle
	var seenSlices int
	override := func(h *testsock.Handle, slices [][]byte) (api.IoResult, bool) {
		seenHandle = h
		seenSlices = len(slices)
		return api.IoResult{}, false
	}
	h := testsock.WrapHandle(override, fake.NewIoHandle())

	_, err := h.Writev([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	assert.Same(t, h, seenHandle)
	assert.Equal(t, 3, seenSlices)
}

func TestSendmsg_InterceptsAndCachesPeer(t *testing.T) {
	bound := netip.MustParseAddrPort("10.0.0.1:53")
	p1 := netip.MustParseAddrPort("192.0.2.10:4433")
	p2 := netip.MustParseAddrPort("[2001:db8::1]:8443")

	real := fake.NewIoHandle()
	real.SetPeerAddress(bound)
	h := testsock.WrapHandle(fixed(7, nil), real)

	peer, err := h.PeerAddress()
	require.NoError(t, err)
	assert.Equal(t, bound, peer)

	n, err := h.Sendmsg(payload(20), 0, netip.Addr{}, p1)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Zero(t, real.SendCalls())

	peer, err = h.PeerAddress()
	require.NoError(t, err)
	assert.Equal(t, p1, peer)

	_, err = h.Sendmsg(payload(20), 0, netip.Addr{}, p2)
	require.NoError(t, err)
	peer, err = h.PeerAddress()
	require.NoError(t, err)
	assert.Equal(t, p2, peer)
}

func TestSendmsg_DelegatesWhenOverrideDeclines(t *testing.T) {
	peer := netip.MustParseAddrPort("192.0.2.10:4433")
	self := netip.MustParseAddr("192.0.2.1")
	real := fake.NewIoHandle()
	h := testsock.WrapHandle(passThrough, real)

	n, err := h.Sendmsg([][]byte{[]byte("hello")}, 0, self, peer)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	dgrams := real.Datagrams()
	require.Len(t, dgrams, 1)
	assert.Equal(t, peer, dgrams[0].Peer)
	assert.Equal(t, self, dgrams[0].SelfIP)
	assert.Equal(t, []byte("hello"), dgrams[0].Data)

	got, err := h.PeerAddress()
	require.NoError(t, err)
	assert.Equal(t, peer, got)
}

func TestPeerAddress_PropertyLastSendWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := testsock.WrapHandle(passThrough, fake.NewIoHandle())
		sends := rapid.IntRange(1, 8).Draw(rt, "sends")
		var last netip.AddrPort
		for i := 0; i < sends; i++ {
			ip := netip.AddrFrom4([4]byte{
				byte(rapid.IntRange(1, 223).Draw(rt, "a")),
				byte(rapid.IntRange(0, 255).Draw(rt, "b")),
				byte(rapid.IntRange(0, 255).Draw(rt, "c")),
				byte(rapid.IntRange(1, 254).Draw(rt, "d")),
			})
			last = netip.AddrPortFrom(ip, rapid.Uint16().Draw(rt, "port"))
			_, err := h.Sendmsg(payload(4), 0, netip.Addr{}, last)
			require.NoError(rt, err)
		}
		got, err := h.PeerAddress()
		require.NoError(rt, err)
		require.Equal(rt, last.Addr(), got.Addr())
		require.Equal(rt, last.Port(), got.Port())
	})
}

func TestAccept_ChildInheritsOverride(t *testing.T) {
	calls := 0
	override := func(h *testsock.Handle, _ [][]byte) (api.IoResult, bool) {
		calls++
		return api.Ok[uint64](42), true
	}
	listener := fake.NewIoHandle()
	accepted := fake.NewIoHandle()
	listener.QueueAccept(accepted)
	h := testsock.WrapHandle(override, listener)

	child, err := h.Accept()
	require.NoError(t, err)
	wrapped, ok := child.(*testsock.Handle)
	require.True(t, ok, "accepted handle is %T", child)
	assert.EqualValues(t, 1, wrapped.Index())
	assert.Same(t, accepted, wrapped.IoHandle)
	assert.Equal(t, []*fake.IoHandle{accepted}, listener.Accepted())

	n, err := wrapped.Writev(payload(100))
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.Zero(t, accepted.BytesWritten())
	assert.Equal(t, 1, calls)

	// Grandchildren stay interceptable too.
	dup, err := wrapped.Duplicate()
	require.NoError(t, err)
	n, err = dup.Writev(payload(100))
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 2, dup.(*testsock.Handle).Index())
}

func TestAccept_ErrorPassesThrough(t *testing.T) {
	h := testsock.WrapHandle(nil, fake.NewIoHandle())
	child, err := h.Accept()
	assert.Nil(t, child)
	assert.ErrorIs(t, err, api.ErrAgain)
}

func TestDuplicate_ChildInheritsOverride(t *testing.T) {
	real := fake.NewIoHandle()
	h := testsock.WrapHandle(fixed(3, api.ErrAgain), real)

	dup, err := h.Duplicate()
	require.NoError(t, err)
	n, err := dup.Writev(payload(9))
	assert.EqualValues(t, 3, n)
	assert.ErrorIs(t, err, api.ErrAgain)

	dups := real.Duplicates()
	require.Len(t, dups, 1)
	assert.Zero(t, dups[0].WriteCalls())
}

func TestActivateInDispatcherThread_FiresOnceOnDispatcher(t *testing.T) {
	d := startDispatcher(t)
	h := testsock.WrapHandle(nil, fake.NewIoHandle())
	fires := make(chan firing, 8)

	var err error
	onDispatcher(t, d, func() {
		err = h.InitializeFileEvent(d, recordFirings(d, fires), api.TriggerEdge, api.EventRead)
	})
	require.NoError(t, err)
	require.True(t, h.Registered())
	require.False(t, d.IsThreadSafe())

	mask := api.EventRead | api.EventClosed
	h.ActivateInDispatcherThread(mask)

	select {
	case f := <-fires:
		assert.Equal(t, mask, f.events)
		assert.True(t, f.onDispatcher, "callback ran off the dispatcher goroutine")
	case <-time.After(5 * time.Second):
		t.Fatal("activation never fired")
	}

	onDispatcher(t, d, func() {})
	onDispatcher(t, d, func() {})
	assert.Empty(t, fires, "activation fired more than once")
}

func TestActivateInDispatcherThread_ManyGoroutines(t *testing.T) {
	d := startDispatcher(t)
	const handles = 32
	fires := make([]chan firing, handles)
	hs := make([]*testsock.Handle, handles)
	for i := range hs {
		i := i
		fires[i] = make(chan firing, handles)
		hs[i] = testsock.WrapHandle(nil, fake.NewIoHandle())
		var err error
		cb := recordFirings(d, fires[i])
		onDispatcher(t, d, func() {
			err = hs[i].InitializeFileEvent(d, cb, api.TriggerLevel, api.EventRead|api.EventWrite)
		})
		require.NoError(t, err)
	}

	var g errgroup.Group
	for i := range hs {
		i := i
		g.Go(func() error {
			hs[i].ActivateInDispatcherThread(api.EventWrite)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := range hs {
		select {
		case f := <-fires[i]:
			assert.Equal(t, api.EventWrite, f.events)
			assert.True(t, f.onDispatcher)
		case <-time.After(5 * time.Second):
			t.Fatalf("handle %d never fired", i)
		}
	}
	onDispatcher(t, d, func() {})
	for i := range fires {
		assert.Empty(t, fires[i], "handle %d fired twice", i)
	}
}

func TestActivateInDispatcherThread_FollowsReregistration(t *testing.T) {
	d1 := startDispatcher(t)
	d2 := startDispatcher(t)
	real := fake.NewIoHandle()
	h := testsock.WrapHandle(nil, real)
	fires1 := make(chan firing, 4)
	fires2 := make(chan firing, 4)

	var err error
	onDispatcher(t, d1, func() {
		err = h.InitializeFileEvent(d1, recordFirings(d1, fires1), api.TriggerEdge, api.EventRead)
	})
	require.NoError(t, err)
	onDispatcher(t, d1, func() { h.ResetFileEvents() })
	onDispatcher(t, d2, func() {
		err = h.InitializeFileEvent(d2, recordFirings(d2, fires2), api.TriggerEdge, api.EventRead)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, real.Registrations())

	h.ActivateInDispatcherThread(api.EventRead)
	select {
	case f := <-fires2:
		assert.Equal(t, api.EventRead, f.events)
		assert.True(t, f.onDispatcher)
	case <-time.After(5 * time.Second):
		t.Fatal("activation did not reach the new dispatcher")
	}
	onDispatcher(t, d1, func() {})
	assert.Empty(t, fires1)
}

func TestActivateInDispatcherThread_DroppedAfterClose(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	d := startDispatcher(t)
	real := fake.NewIoHandle()
	h := testsock.WrapHandle(nil, real)
	fires := make(chan firing, 4)

	var err error
	onDispatcher(t, d, func() {
		err = h.InitializeFileEvent(d, recordFirings(d, fires), api.TriggerEdge, api.EventRead)
	})
	require.NoError(t, err)

	// Hold the dispatcher so the close lands before the activation runs.
	release := make(chan struct{})
	d.Post(func() { <-release })
	d.Post(func() { _ = h.Close() })
	h.ActivateInDispatcherThread(api.EventRead)
	close(release)

	onDispatcher(t, d, func() {})
	onDispatcher(t, d, func() {})
	assert.Empty(t, fires)
	assert.False(t, real.IsOpen())

	var dropped bool
	for _, e := range hook.AllEntries() {
		if e.Message == "dropping activation for closed handle" {
			dropped = true
		}
	}
	assert.True(t, dropped, "expected a drop log entry")
}

func TestActivateInDispatcherThread_UnregisteredTerminatesProcess(t *testing.T) {
	cmd := reexec.Command(activateUnregistered)
	if cmd == nil {
		t.Skip("re-exec is not supported on this platform")
	}
	out, err := cmd.CombinedOutput()
	require.Error(t, err, "child exited cleanly; output: %s", out)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "unexpected error %v", err)
	assert.NotZero(t, exitErr.ExitCode())
	assert.Contains(t, string(out), "activation requested on a handle with no dispatcher")
}

func TestClose_MarksHandleAndClosesReal(t *testing.T) {
	real := fake.NewIoHandle()
	h := testsock.WrapHandle(nil, real)
	require.NoError(t, h.Close())
	assert.False(t, real.IsOpen())
	assert.ErrorIs(t, h.Close(), api.ErrHandleClosed)
}

func TestWrapHandle_AssignsIdentity(t *testing.T) {
	a := testsock.WrapHandle(nil, fake.NewIoHandle())
	b := testsock.WrapHandle(nil, fake.NewIoHandle())
	assert.Zero(t, a.Index())
	assert.Zero(t, b.Index(), "standalone handles start their own lineage")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Nil(t, a.Override())
	assert.False(t, a.Registered())
}
