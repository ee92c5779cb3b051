package app

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerKind distinguishes the two one-shot timers a round uses.
type TimerKind int

const (
	TimerNone TimerKind = iota
	// TimerDeadline ends the round when the time budget runs out.
	TimerDeadline
	// TimerResults advances to the next question after the results display.
	TimerResults
)

func (k TimerKind) String() string {
	switch k {
	case TimerDeadline:
		return "deadline"
	case TimerResults:
		return "results"
	default:
		return "none"
	}
}

// RoundClock holds the single pending timer of a session. It is not safe for
// concurrent use: the orchestrator only touches it while holding its lock, and
// timer callbacks re-enter through the orchestrator before calling Claim.
type RoundClock struct {
	clock  clockwork.Clock
	timer  clockwork.Timer
	kind   TimerKind
	ticket uint64
}

func NewRoundClock(clock clockwork.Clock) *RoundClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RoundClock{clock: clock}
}

// Now returns the current time of the underlying clock.
func (c *RoundClock) Now() time.Time {
	return c.clock.Now()
}

// Arm replaces any pending timer with a one-shot timer of the given kind.
// fn runs on its own goroutine and receives the ticket issued for this arming.
// Callers hold the orchestrator lock while arming. AfterFunc does not block,
// and fn takes the lock itself before calling Claim.
func (c *RoundClock) Arm(kind TimerKind, d time.Duration, fn func(ticket uint64)) uint64 {
	c.Cancel()
	c.ticket++
	ticket := c.ticket
	c.kind = kind
	c.timer = c.clock.AfterFunc(d, func() { fn(ticket) })
	return ticket
}

// Cancel stops the pending timer. A callback that already started becomes
// stale and will fail Claim.
func (c *RoundClock) Cancel() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.kind = TimerNone
	c.ticket++
}

// Claim consumes the pending timer if ticket and kind still match it.
func (c *RoundClock) Claim(ticket uint64, kind TimerKind) bool {
	if c.kind != kind || c.ticket != ticket {
		return false
	}
	c.timer = nil
	c.kind = TimerNone
	return true
}

// Pending reports which timer, if any, is armed.
func (c *RoundClock) Pending() TimerKind {
	return c.kind
}
