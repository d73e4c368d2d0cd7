// File: api/events.go
// Package api defines readiness event masks and trigger modes.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "strings"

// Readiness event bits delivered to FileReadyCb.
const (
	EventRead   uint32 = 0x1
	EventWrite  uint32 = 0x2
	EventClosed uint32 = 0x4
)

// FileTriggerType selects how readiness is reported.
type FileTriggerType int

const (
	// TriggerLevel fires while the condition holds.
	TriggerLevel FileTriggerType = iota
	// TriggerEdge fires once per transition.
	TriggerEdge
)

func (t FileTriggerType) String() string {
	switch t {
	case TriggerLevel:
		return "level"
	case TriggerEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// EventString renders an event mask for logs, e.g. "read|write".
func EventString(events uint32) string {
	var parts []string
	if events&EventRead != 0 {
		parts = append(parts, "read")
	}
	if events&EventWrite != 0 {
		parts = append(parts, "write")
	}
	if events&EventClosed != 0 {
		parts = append(parts, "closed")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
