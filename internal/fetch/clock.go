package fetch

import "time"

type Timer interface {
	Stop() bool
}

// Clock schedules cache evictions. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var SystemClock Clock = systemClock{}
