// internal/common/clock/clock.go

// Package clock abstracts the time source so date-range resolution is a
// pure function of its inputs.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fixed returns a clock pinned to t. Used in tests.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }
