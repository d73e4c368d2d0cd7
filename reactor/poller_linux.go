//go:build linux
// +build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller with an eventfd(2) wake-up channel.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sockhook/api"
)

// epollPoller is an epoll-based readiness poller.
type epollPoller struct {
	epfd   int
	wakefd int
	raw    []unix.EpollEvent
}

func newPoller(maxEvents int) (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &epollPoller{
		epfd:   epfd,
		wakefd: wakefd,
		raw:    make([]unix.EpollEvent, maxEvents),
	}, nil
}

func epollMask(events uint32, trigger api.FileTriggerType) uint32 {
	var mask uint32
	if events&api.EventRead != 0 {
		mask |= unix.EPOLLIN
	}
	if events&api.EventWrite != 0 {
		mask |= unix.EPOLLOUT
	}
	if events&api.EventClosed != 0 {
		mask |= unix.EPOLLRDHUP
	}
	if trigger == api.TriggerEdge {
		mask |= unix.EPOLLET
	}
	return mask
}

func (p *epollPoller) add(fd int, events uint32, trigger api.FileTriggerType) error {
	ev := unix.EpollEvent{Events: epollMask(events, trigger), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	return nil
}

func (p *epollPoller) modify(fd int, events uint32, trigger api.FileTriggerType) error {
	ev := unix.EpollEvent{Events: epollMask(events, trigger), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

func (p *epollPoller) remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

func (p *epollPoller) wait(timeout time.Duration, out []readyEvent) ([]readyEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.raw, timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return out, nil // interrupted by signal, normal
		}
		return out, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := p.raw[i]
		fd := int(ev.Fd)
		if fd == p.wakefd {
			p.drainWake()
			continue
		}
		var events uint32
		if ev.Events&unix.EPOLLIN != 0 {
			events |= api.EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			events |= api.EventWrite
		}
		if ev.Events&(unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
			events |= api.EventClosed
		}
		if ev.Events&unix.EPOLLERR != 0 {
			events |= api.EventRead | api.EventWrite
		}
		out = append(out, readyEvent{fd: fd, events: events})
	}
	return out, nil
}

func (p *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != nil {
			return
		}
	}
}

func (p *epollPoller) wake() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

func (p *epollPoller) close() error {
	err1 := unix.Close(p.wakefd)
	err2 := unix.Close(p.epfd)
	return errors.Join(err1, err2)
}
