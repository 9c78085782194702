package ports

import "time"

// Clock supplies the nanosecond timestamps stamped into records. Now must
// never return zero, since zero marks an unset timestamp.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

// SystemClock returns the default wall clock in Unix nanoseconds. Wall
// time can step, but it keeps timestamps comparable across processes on
// the same stream, which matters more for log correlation than strict
// monotonicity within one record.
func SystemClock() Clock {
	return ClockFunc(func() int64 {
		return time.Now().UnixNano()
	})
}
