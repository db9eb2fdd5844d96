// Package limiter provides admission control for the remote submission path.
package limiter

import (
	"sync"
	"time"
)

// SlidingWindowLimiter bounds the number of operations admitted within a
// trailing time window. A rejected call is a normal control-flow signal, not
// an error: the caller decides whether to delay, queue, or drop. There is no
// fairness between competing callers beyond the window and count semantics.
type SlidingWindowLimiter struct {
	sync.Mutex
	windowSize  time.Duration
	maxRequests int
	timestamps  []time.Time
}

// NewSlidingWindowLimiter creates a limiter admitting at most maxRequests
// operations per windowSize.
func NewSlidingWindowLimiter(windowSize time.Duration, maxRequests int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		timestamps:  make([]time.Time, 0, maxRequests),
	}
}

// TryAdmit prunes admissions that have fallen out of the window and, if fewer
// than maxRequests remain, records a new admission and returns true.
// Otherwise it returns false without mutating any state.
func (l *SlidingWindowLimiter) TryAdmit() bool {
	l.Lock()
	defer l.Unlock()

	now := time.Now()

	// Timestamps are ordered oldest first, so pruning only ever advances from
	// the front.
	i := 0
	for i < len(l.timestamps) && now.Sub(l.timestamps[i]) > l.windowSize {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}

	if len(l.timestamps) < l.maxRequests {
		l.timestamps = append(l.timestamps, now)
		return true
	}

	return false
}
