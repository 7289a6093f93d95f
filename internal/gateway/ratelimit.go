package gateway

import (
	"sync"
	"time"
)

// RateLimit is the quota snapshot GitHub reports alongside every GraphQL
// response, either as the rateLimit query field or as X-RateLimit headers.
type RateLimit struct {
	Limit     int
	Remaining int
	Used      int
	ResetAt   time.Time
}

// Tracker holds the latest observed RateLimit and decides how long to
// wait before the next call. One Tracker is shared by every aggregation
// running against the same token, so all access goes through a mutex.
type Tracker struct {
	mu   sync.Mutex
	last RateLimit
	seen bool

	minFloor     int
	safetyBuffer time.Duration
	maxSleep     time.Duration
	now          func() time.Time
}

// TrackerOptions tune the reserve floor and sleep bounds.
type TrackerOptions struct {
	// MinFloor is the absolute call reserve; the effective floor is
	// max(MinFloor, 10% of the observed hourly budget).
	MinFloor int
	// SafetyBuffer is added on top of the time until reset.
	SafetyBuffer time.Duration
	// MaxSleep caps the pre-call wait. A required wait beyond the cap is
	// surfaced as exhausted instead of blocking for hours.
	MaxSleep time.Duration
}

// NewTracker builds a Tracker with sane defaults for zero-valued options.
func NewTracker(opts TrackerOptions) *Tracker {
	if opts.MinFloor <= 0 {
		opts.MinFloor = 100
	}
	if opts.SafetyBuffer <= 0 {
		opts.SafetyBuffer = 10 * time.Second
	}
	if opts.MaxSleep <= 0 {
		opts.MaxSleep = 10 * time.Minute
	}
	return &Tracker{
		minFloor:     opts.MinFloor,
		safetyBuffer: opts.SafetyBuffer,
		maxSleep:     opts.MaxSleep,
		now:          time.Now,
	}
}

// Observe records the latest snapshot. The newest observation always
// wins, including after a reset bumped Remaining back up.
func (t *Tracker) Observe(rl RateLimit) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = rl
	t.seen = true
}

// Snapshot returns the last observed rate limit, if any.
func (t *Tracker) Snapshot() (RateLimit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.seen
}

// Delay returns how long the caller must wait before the next call.
// ok is false when the required wait exceeds the configured cap; the
// caller should surface a rate-limit-exhausted condition instead of
// sleeping.
func (t *Tracker) Delay() (wait time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.seen {
		return 0, true
	}
	if t.last.Remaining > t.floor() {
		return 0, true
	}

	now := t.now()
	if !now.Before(t.last.ResetAt) {
		return 0, true
	}
	wait = t.last.ResetAt.Sub(now) + t.safetyBuffer
	if wait > t.maxSleep {
		return t.maxSleep, false
	}
	return wait, true
}

func (t *Tracker) floor() int {
	floor := t.last.Limit / 10
	if floor < t.minFloor {
		floor = t.minFloor
	}
	return floor
}
