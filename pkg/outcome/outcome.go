// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outcome provides a tagged pipeline result that makes partial
// success a first-class value: Ok carries a clean result, Degraded a
// usable result plus warnings, and Fail an error.
package outcome

// Outcome is the result of one pipeline stage.
type Outcome[T any] struct {
	value    T
	warnings []string
	err      error
}

// Ok wraps a clean result.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Degraded wraps a usable result with warnings describing what was
// recovered or skipped along the way.
func Degraded[T any](v T, warnings ...string) Outcome[T] {
	return Outcome[T]{value: v, warnings: warnings}
}

// Fail wraps a stage error.
func Fail[T any](err error) Outcome[T] {
	return Outcome[T]{err: err}
}

// Value returns the result and whether it is usable.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.err == nil
}

// Err returns the stage error, or nil for Ok and Degraded outcomes.
func (o Outcome[T]) Err() error {
	return o.err
}

// Warnings returns recovery warnings accumulated by the stage.
func (o Outcome[T]) Warnings() []string {
	return o.warnings
}

// IsDegraded reports whether the result is usable but carried warnings.
func (o Outcome[T]) IsDegraded() bool {
	return o.err == nil && len(o.warnings) > 0
}

// WithWarnings returns a copy with additional warnings appended. On a
// failed outcome the warnings are kept for error context but the
// outcome stays failed.
func (o Outcome[T]) WithWarnings(warnings ...string) Outcome[T] {
	o.warnings = append(append([]string(nil), o.warnings...), warnings...)
	return o
}
