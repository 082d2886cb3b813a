package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler whose clock only moves when Advance is called.
// Due functions run synchronously on the goroutine calling Advance, in
// deadline order (ties broken by scheduling order).
type Manual struct {
	mtx    sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
	delays []time.Duration
}

type manualTimer struct {
	m    *Manual
	seq  uint64
	when time.Time
	fn   func()
}

// NewManual returns a Manual scheduler whose clock starts at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.seq++
	t := &manualTimer{m: m, seq: m.seq, when: m.now.Add(d), fn: f}
	m.timers = append(m.timers, t)
	m.delays = append(m.delays, d)
	return t
}

// Advance moves the clock forward by d, running every function that becomes
// due on the way.
func (m *Manual) Advance(d time.Duration) {
	m.mtx.Lock()
	target := m.now.Add(d)
	m.mtx.Unlock()

	for {
		m.mtx.Lock()
		next := m.popDue(target)
		if next == nil {
			m.now = target
			m.mtx.Unlock()
			return
		}
		m.now = next.when
		m.mtx.Unlock()

		next.fn()
	}
}

// Pending returns the number of scheduled functions not yet run nor stopped.
func (m *Manual) Pending() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.timers)
}

// Delays returns every delay ever requested through AfterFunc, in order.
func (m *Manual) Delays() []time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	delays := make([]time.Duration, len(m.delays))
	copy(delays, m.delays)
	return delays
}

func (m *Manual) popDue(target time.Time) *manualTimer {
	if len(m.timers) <= 0 {
		return nil
	}

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].when.Equal(m.timers[j].when) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].when.Before(m.timers[j].when)
	})

	first := m.timers[0]
	if first.when.After(target) {
		return nil
	}
	m.timers = m.timers[1:]
	return first
}

func (t *manualTimer) Stop() bool {
	t.m.mtx.Lock()
	defer t.m.mtx.Unlock()

	for i, tt := range t.m.timers {
		if tt == t {
			t.m.timers = append(t.m.timers[:i], t.m.timers[i+1:]...)
			return true
		}
	}
	return false
}
