// File: reactor/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher is a single-goroutine event loop. Other goroutines interact with
// it only through Post; file event callbacks and posted tasks always run on
// the goroutine that called Run.

package reactor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/containerd/log"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-sockhook/api"
)

// Errors returned by Run.
var (
	ErrAlreadyRunning = errors.New("reactor: dispatcher is already running")
	ErrExited         = api.ErrDispatcherExited
)

// Ensure compile-time interface compliance.
var _ api.Dispatcher = (*Dispatcher)(nil)

// Dispatcher implements api.Dispatcher.
type Dispatcher struct {
	cfg    Config
	poller poller
	logger *log.Entry

	mu     sync.Mutex
	tasks  *queue.Queue // of func(), guarded by mu
	exited bool         // guarded by mu
	closed bool         // guarded by mu; the poller is released

	running atomic.Bool
	loopID  atomic.Uint64
	nEvents atomic.Int64

	// Loop goroutine state.
	polled    map[int]*fileEvent
	activated []*fileEvent
	ready     []readyEvent

	started chan struct{}
	done    chan struct{}
}

// NewDispatcher creates a dispatcher; call Run on the goroutine that should own it.
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxEvents <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "max events must be positive").
			WithContext("max_events", cfg.MaxEvents)
	}
	p, err := newPoller(cfg.MaxEvents)
	if err != nil {
		return nil, api.NewError(api.ErrCodeInternal, "create poller").
			WithContext("dispatcher", cfg.Name).
			Wrap(err)
	}
	d := &Dispatcher{
		cfg:     cfg,
		poller:  p,
		logger:  log.L.WithField("dispatcher", cfg.Name),
		tasks:   queue.New(),
		polled:  make(map[int]*fileEvent),
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	cfg.Probes.RegisterProbe(cfg.Name+".pending_tasks", func() any { return d.PendingTasks() })
	cfg.Probes.RegisterProbe(cfg.Name+".file_events", func() any { return d.FileEvents() })
	return d, nil
}

// Name returns the configured dispatcher name.
func (d *Dispatcher) Name() string { return d.cfg.Name }

// Post enqueues fn for execution on the dispatcher goroutine.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	if d.exited {
		d.mu.Unlock()
		d.logger.Debug("dropping task posted after exit")
		return
	}
	d.tasks.Add(fn)
	// Waking under mu keeps Close from releasing the poller mid-write.
	err := d.poller.wake()
	d.mu.Unlock()
	if err != nil {
		d.logger.WithError(err).Error("failed to wake dispatcher")
	}
}

// PendingTasks returns the number of posted tasks not yet run.
func (d *Dispatcher) PendingTasks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tasks.Length()
}

// FileEvents returns the number of live file events.
func (d *Dispatcher) FileEvents() int {
	return int(d.nEvents.Load())
}

// IsThreadSafe reports whether the caller is the dispatcher goroutine.
func (d *Dispatcher) IsThreadSafe() bool {
	id := d.loopID.Load()
	return id != 0 && id == goroutineID()
}

// ownedByCaller is true on the dispatcher goroutine, or on any goroutine
// while the loop is not running.
func (d *Dispatcher) ownedByCaller() bool {
	return !d.running.Load() || d.IsThreadSafe()
}

// Exit stops the loop. Tasks still queued are discarded. Idempotent.
func (d *Dispatcher) Exit() {
	d.mu.Lock()
	if d.exited {
		d.mu.Unlock()
		return
	}
	d.exited = true
	if !d.closed {
		_ = d.poller.wake()
	}
	d.mu.Unlock()
}

// Started is closed once Run has bound the dispatcher to its goroutine. From
// then until Done, file events belong to that goroutine alone.
func (d *Dispatcher) Started() <-chan struct{} { return d.started }

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Run executes the loop on the calling goroutine until Exit is called or ctx
// is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.isExited() {
		return ErrExited
	}
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	d.loopID.Store(goroutineID())
	close(d.started)
	defer func() {
		d.Exit()
		d.loopID.Store(0)
		d.running.Store(false)
		d.discardTasks()
		close(d.done)
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			d.Exit()
		case <-stop:
		}
	}()

	logger := d.logger.WithField("goroutine", d.loopID.Load())
	logger.Debug("dispatcher started")
	defer logger.Debug("dispatcher stopped")

	for {
		d.runPostedTasks()
		if d.isExited() {
			break
		}
		d.deliverActivations()
		if d.isExited() {
			break
		}

		timeout := d.cfg.PollTimeout
		if len(d.activated) > 0 || d.PendingTasks() > 0 {
			timeout = 0
		}
		var err error
		d.ready, err = d.poller.wait(timeout, d.ready[:0])
		if err != nil {
			d.Exit()
			return err
		}
		for _, ev := range d.ready {
			if fe, ok := d.polled[ev.fd]; ok {
				fe.fire(ev.events & fe.enabled)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Close releases the poller. Call after Run has returned. Posts racing with
// Close are dropped. Idempotent.
func (d *Dispatcher) Close() error {
	d.Exit()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	d.cfg.Probes.UnregisterProbe(d.cfg.Name + ".pending_tasks")
	d.cfg.Probes.UnregisterProbe(d.cfg.Name + ".file_events")
	return d.poller.close()
}

func (d *Dispatcher) isExited() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exited
}

// runPostedTasks runs the tasks queued at entry; tasks posted by those tasks
// run in the next iteration.
func (d *Dispatcher) runPostedTasks() {
	d.mu.Lock()
	n := d.tasks.Length()
	batch := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, d.tasks.Remove().(func()))
	}
	d.mu.Unlock()

	for _, fn := range batch {
		if d.isExited() {
			return
		}
		d.safeCall("posted task", fn)
		d.cfg.Metrics.TaskRun()
	}
}

func (d *Dispatcher) discardTasks() {
	d.mu.Lock()
	n := d.tasks.Length()
	for d.tasks.Length() > 0 {
		d.tasks.Remove()
	}
	d.mu.Unlock()
	if n > 0 {
		d.logger.WithField("tasks", n).Debug("discarded pending tasks on exit")
	}
}

func (d *Dispatcher) deliverActivations() {
	if len(d.activated) == 0 {
		return
	}
	batch := d.activated
	d.activated = nil
	for _, fe := range batch {
		events := fe.injected
		fe.injected = 0
		fe.scheduled = false
		if fe.closed {
			continue
		}
		fe.fire(events)
	}
}

// safeCall keeps the loop alive when a callback panics.
func (d *Dispatcher) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithField("panic", r).Errorf("recovered panic in %s", what)
		}
	}()
	fn()
}

// CreateFileEvent registers fd for readiness notifications. A negative fd
// creates an activation-only event that is never polled.
//
// Callers must be on the dispatcher goroutine, or call before Run has
// started (Started not yet closed) or after it has returned. A goroutine
// that spawns Run and registers without waiting on Started races the loop.
func (d *Dispatcher) CreateFileEvent(fd int, cb api.FileReadyCb, trigger api.FileTriggerType, events uint32) (api.FileEvent, error) {
	if cb == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil file ready callback")
	}
	if !d.ownedByCaller() {
		return nil, api.ErrWrongThread
	}
	fe := &fileEvent{
		d:       d,
		fd:      fd,
		cb:      cb,
		trigger: trigger,
		enabled: events,
	}
	if fd >= 0 {
		if _, dup := d.polled[fd]; dup {
			return nil, api.NewError(api.ErrCodeInvalidArgument, "descriptor already registered").
				WithContext("fd", fd)
		}
		if err := d.poller.add(fd, events, trigger); err != nil {
			return nil, err
		}
		d.polled[fd] = fe
	}
	d.nEvents.Add(1)
	return fe, nil
}
