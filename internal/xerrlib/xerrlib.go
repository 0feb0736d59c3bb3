// Package xerrlib provides the sentinel-plus-cause error wrapping used
// throughout kupferbootstrap. Every package defines its own sentinel
// errors (ErrChrootInactive, ErrDependencyCycle, ...) and wraps the
// underlying cause with Wrap or Wrapf so errors.Is keeps matching the
// sentinel while the original cause stays inspectable via errors.Unwrap.
package xerrlib

import "fmt"

// Wrap joins a sentinel error with its cause. Both satisfy errors.Is on
// the returned error.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Wrapf joins a sentinel error with a formatted message. Use a trailing
// %w verb in format to also chain an underlying cause.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", sentinel, fmt.Errorf(format, args...))
}
