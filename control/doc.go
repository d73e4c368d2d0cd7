// Package control
// Author: momentics <momentics@gmail.com>
//
// Metrics and debug introspection for the interception layer.
//
// Provides concurrent-safe primitives including:
//   - Prometheus counters for overridden and real writes, created handles,
//     and cross-goroutine activations
//   - Named debug probes with state export
package control
