package service

import (
	"math"
	"sync"
	"time"
)

// SessionTimer recomputes the remaining time of a timed session on every
// tick and fires onExpire exactly once when the deadline passes. Stop never
// blocks, so it is safe to call while holding a lock the expiry callback
// also takes.
type SessionTimer struct {
	deadline time.Time
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func StartSessionTimer(deadline time.Time, interval time.Duration, now func() time.Time, onExpire func()) *SessionTimer {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	t := &SessionTimer{
		deadline: deadline,
		now:      now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.run(interval, onExpire)
	return t
}

func (t *SessionTimer) run(interval time.Duration, onExpire func()) {
	defer close(t.done)

	if t.Remaining() <= 0 {
		onExpire()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if t.Remaining() <= 0 {
				onExpire()
				return
			}
		}
	}
}

// Remaining is never negative.
func (t *SessionTimer) Remaining() time.Duration {
	d := t.deadline.Sub(t.now())
	if d < 0 {
		return 0
	}
	return d
}

func (t *SessionTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// CountdownSeconds rounds a remaining duration up to whole seconds, so a
// countdown shows 0 only once the deadline has passed.
func CountdownSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Done is closed once the ticking goroutine has exited.
func (t *SessionTimer) Done() <-chan struct{} {
	return t.done
}
