// Package api
// Author: momentics@gmail.com
//
// Generic result and error propagation.

package api

// Result wraps any payload or error.
type Result[T any] struct {
	Value T
	Err   error
}

// Unpack returns the result as a Go (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

// Ok builds a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail builds a failed result carrying v as the partial value.
func Fail[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}
