// File: testsock/lineage.go
// Author: momentics <momentics@gmail.com>

package testsock

import (
	"sync/atomic"

	"github.com/containerd/log"
	"github.com/google/uuid"

	"github.com/momentics/hioload-sockhook/api"
	"github.com/momentics/hioload-sockhook/control"
)

// lineage is the state shared by a root handle and everything spawned from
// it: the override, the creation counter and the creation hook.
type lineage struct {
	override WriteOverrideFunc
	metrics  *control.Metrics
	created  func(*Handle)
	next     atomic.Uint64
}

// spawn wraps real in a new Handle of this lineage.
func (l *lineage) spawn(real api.IoHandle, origin string) *Handle {
	h := &Handle{
		IoHandle: real,
		lineage:  l,
		index:    l.next.Add(1) - 1,
		id:       uuid.New(),
	}
	l.metrics.HandleCreated(origin)
	if l.created != nil {
		l.created(h)
	}
	log.L.WithFields(log.Fields{
		"handle": h.id,
		"index":  h.index,
		"origin": origin,
		"fd":     real.Fd(),
	}).Debug("created interceptable handle")
	return h
}
