// File: testsock/doc.go
// Package testsock
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Interceptable socket handles for integration tests.
//
// A SocketInterface is plugged into socket-creation code in place of the
// default maker. Every descriptor it wraps, and every descriptor later
// accepted or duplicated from those, becomes a *Handle bound to the same
// WriteOverrideFunc. The override sees each Writev and Sendmsg before the
// real handle does and may answer with a synthetic result instead.
//
// Test goroutines force readiness through Handle.ActivateInDispatcherThread,
// which posts the activation to the handle's dispatcher rather than touching
// dispatcher state directly.
package testsock
