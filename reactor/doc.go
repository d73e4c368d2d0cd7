// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides a single-goroutine Dispatcher: a posted-task queue,
// readiness polling (epoll on Linux) and file events whose callbacks only ever
// run on the dispatcher goroutine.
package reactor
