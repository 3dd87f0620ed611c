package clock

import "time"

// Timer is a cancellable handle for a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
