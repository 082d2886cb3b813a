package scheduler

import (
	"sync"
	"time"
)

// Timer is the handle of a function scheduled for later execution.
type Timer interface {
	// Stop prevents the function from running. It returns false if the
	// function already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler abstracts the wall clock and timers so that components relying
// on delays (reconnect backoff, keep-alive, sweeps) can be driven
// deterministically in tests.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// New returns a Scheduler backed by the time package.
func New() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type periodic struct {
	mtx     sync.Mutex
	timer   Timer
	stopped bool
}

// Every runs f on the given scheduler once per interval until the returned
// timer is stopped. The next run is scheduled before f is invoked, so a slow
// f does not shift the period.
func Every(s Scheduler, interval time.Duration, f func()) Timer {
	p := &periodic{}

	var tick func()
	tick = func() {
		p.mtx.Lock()
		if p.stopped {
			p.mtx.Unlock()
			return
		}
		p.timer = s.AfterFunc(interval, tick)
		p.mtx.Unlock()

		f()
	}

	p.mtx.Lock()
	p.timer = s.AfterFunc(interval, tick)
	p.mtx.Unlock()
	return p
}

func (p *periodic) Stop() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.stopped {
		return false
	}
	p.stopped = true
	return p.timer.Stop()
}
