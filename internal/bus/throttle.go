package bus

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttler passes at most one value per interval. The first value in a
// quiet period is emitted at once; values arriving inside the window are
// collapsed and the latest one is emitted when the window ends.
//
// Thread-safety: All methods are safe for concurrent use.
type Throttler[T any] struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	timer   *time.Timer
	pending bool
	latest  T
	seq     uint64 // detects stale timer callbacks
	emit    func(T)
}

// NewThrottler creates a throttler that calls emit at most once per interval.
func NewThrottler[T any](interval time.Duration, emit func(T)) *Throttler[T] {
	return &Throttler[T]{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		emit:    emit,
	}
}

// Call offers v. Leading values are emitted on the calling goroutine;
// trailing values on a timer goroutine.
func (t *Throttler[T]) Call(v T) {
	t.mu.Lock()

	if t.timer != nil {
		// A trailing emission is already scheduled; it will carry v.
		t.latest = v
		t.pending = true
		t.mu.Unlock()
		return
	}

	now := time.Now()
	r := t.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		t.mu.Unlock()
		t.emit(v)
		return
	}

	// The reservation is the trailing emission's slot.
	t.latest = v
	t.pending = true
	t.seq++
	currentSeq := t.seq
	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if !t.pending || t.seq != currentSeq {
			t.mu.Unlock()
			return
		}
		latest := t.latest
		var zero T
		t.latest = zero
		t.pending = false
		t.timer = nil
		t.mu.Unlock()
		t.emit(latest)
	})
	t.mu.Unlock()
}

// Cancel drops any pending trailing value.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.pending = false
	var zero T
	t.latest = zero
}

// Pending reports whether a trailing value is scheduled.
func (t *Throttler[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
