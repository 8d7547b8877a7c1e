package tiles

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrUpstreamUnavailable is returned while a style's breaker is open.
var ErrUpstreamUnavailable = eris.New("tiles: upstream unavailable")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker stops calls to one upstream tile server after consecutive
// failures. After the reset timeout a single probe is let through; its
// result closes or reopens the breaker.
type breaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	openedAt  time.Time
	probing   bool
	threshold int
	reset     time.Duration
	now       func() time.Time
}

func newBreaker(threshold int, reset time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}
	return &breaker{threshold: threshold, reset: reset, now: time.Now}
}

// allow reports whether a call may proceed.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return ErrUpstreamUnavailable
		}
		b.state = breakerHalfOpen
		b.probing = true
		return nil
	case breakerHalfOpen:
		if b.probing {
			return ErrUpstreamUnavailable
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

// record feeds the outcome of an allowed call back into the breaker.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.state = breakerClosed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = b.now()
		b.probing = false
	}
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
