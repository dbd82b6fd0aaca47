package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen rejects calls while an upstream is considered down
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects calls beyond the half-open trial quota
	ErrTooManyRequests = errors.New("too many requests")
)

// State is a breaker's position in the closed → open → half-open cycle
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText reports the state by name in JSON health output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings configures a breaker. Zero values take defaults.
type Settings struct {
	// MaxRequests is the number of trial requests allowed while half-open
	MaxRequests uint32
	// Interval clears the closed-state counts periodically
	Interval time.Duration
	// Timeout is how long the breaker stays open before a trial
	Timeout time.Duration
	// ReadyToTrip decides, after a failure while closed, whether to open
	ReadyToTrip func(counts Counts) bool
	// IsFailure classifies a non-nil error. Defaults to every error.
	IsFailure func(err error) bool
	// OnStateChange is called with the breaker lock held
	OnStateChange func(name string, from State, to State)
	// Clock defaults to time.Now
	Clock func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = time.Minute
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	return s
}

// Counts are the outcomes recorded since the last state change or interval
type Counts struct {
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"totalSuccesses"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Snapshot is a point-in-time report of one breaker
type Snapshot struct {
	State  State  `json:"state"`
	Counts Counts `json:"counts"`
	// OpenedAt is when the breaker last opened; zero if it never has
	OpenedAt time.Time `json:"openedAt,omitzero"`
}

// Breaker guards calls to one upstream
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	epoch    uint64
	deadline time.Time
	openedAt time.Time
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	settings = settings.withDefaults()
	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		deadline: settings.Clock().Add(settings.Interval),
	}
}

// Name returns the upstream name the breaker guards
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.settings.Clock())
	return b.state
}

// Counts returns the current counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Snapshot reports state, counts and the last opening time
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(b.settings.Clock())
	return Snapshot{State: b.state, Counts: b.counts, OpenedAt: b.openedAt}
}

// Do runs fn unless the circuit rejects it, and records the outcome. fn's
// error is returned unchanged; a panic counts as a failure and is re-raised.
func (b *Breaker) Do(fn func() error) (err error) {
	epoch, err := b.admit()
	if err != nil {
		return err
	}

	ok := false
	defer func() {
		b.settle(epoch, ok)
	}()

	err = fn()
	ok = err == nil || !b.settings.IsFailure(err)
	return err
}

// admit reserves a request slot in the current epoch
func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(b.settings.Clock())
	switch {
	case b.state == StateOpen:
		return b.epoch, ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.settings.MaxRequests:
		return b.epoch, ErrTooManyRequests
	}
	b.counts.Requests++
	return b.epoch, nil
}

// settle records an outcome unless the epoch it was admitted in has ended
func (b *Breaker) settle(epoch uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.settings.Clock()
	b.advance(now)
	if epoch != b.epoch {
		return
	}

	if ok {
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
			b.transition(StateClosed, now)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.counts.failure()
		if b.settings.ReadyToTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// advance applies time-driven changes: the closed-state interval reset and
// the open → half-open timeout. Caller holds b.mu.
func (b *Breaker) advance(now time.Time) {
	if b.deadline.IsZero() || now.Before(b.deadline) {
		return
	}
	switch b.state {
	case StateClosed:
		b.nextEpoch(now)
	case StateOpen:
		b.transition(StateHalfOpen, now)
	}
}

// transition moves to state and starts a new epoch. Caller holds b.mu.
func (b *Breaker) transition(state State, now time.Time) {
	if b.state == state {
		return
	}
	from := b.state
	b.state = state
	if state == StateOpen {
		b.openedAt = now
	}
	b.nextEpoch(now)

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, state)
	}
}

// nextEpoch clears counts and sets the deadline for the current state.
// Half-open has no deadline; it ends on the trial outcome.
func (b *Breaker) nextEpoch(now time.Time) {
	b.epoch++
	b.counts = Counts{}

	switch b.state {
	case StateClosed:
		b.deadline = now.Add(b.settings.Interval)
	case StateOpen:
		b.deadline = now.Add(b.settings.Timeout)
	default:
		b.deadline = time.Time{}
	}
}
