//go:build !linux
// +build !linux

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback poller for platforms without an epoll backend. It only supports
// wake-ups; descriptors are accepted but never reported ready, so file events
// fire through Activate alone.

package reactor

import (
	"time"

	"github.com/momentics/hioload-sockhook/api"
)

type chanPoller struct {
	wakeCh chan struct{}
}

func newPoller(int) (poller, error) {
	return &chanPoller{wakeCh: make(chan struct{}, 1)}, nil
}

func (p *chanPoller) add(int, uint32, api.FileTriggerType) error    { return nil }
func (p *chanPoller) modify(int, uint32, api.FileTriggerType) error { return nil }
func (p *chanPoller) remove(int) error                              { return nil }

func (p *chanPoller) wait(timeout time.Duration, out []readyEvent) ([]readyEvent, error) {
	if timeout < 0 {
		<-p.wakeCh
		return out, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.wakeCh:
	case <-t.C:
	}
	return out, nil
}

func (p *chanPoller) wake() error {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

func (p *chanPoller) close() error { return nil }
