// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug probes for inspecting factories and dispatchers from tests.

package control

import "sync"

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing any previous one.
// A nil registry ignores the call.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	if dp == nil {
		return
	}
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// UnregisterProbe removes a named hook.
func (dp *DebugProbes) UnregisterProbe(name string) {
	if dp == nil {
		return
	}
	dp.mu.Lock()
	defer dp.mu.Unlock()
	delete(dp.probes, name)
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	out := make(map[string]any)
	if dp == nil {
		return out
	}
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}
