// Package search drives place lookups from keystrokes: it debounces input,
// runs the suggestion pipeline off the caller's goroutine, and applies only
// the results of the most recent query.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/oracle/pkg/location"
	"github.com/codeGROOVE-dev/oracle/pkg/suggest"
)

// Default delays.
const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultBlurGrace = 200 * time.Millisecond
)

// State is the lifecycle of the current search cycle.
type State int

// Search cycle states.
const (
	Idle State = iota
	Pending
	Resolved
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Builder produces suggestions for a query. *suggest.Aggregator satisfies it.
type Builder interface {
	Build(ctx context.Context, query string) suggest.Result
}

// Snapshot is a copy of the controller's view state.
type Snapshot struct {
	State       State
	Query       string
	Suggestions []location.Candidate
	Visible     bool
	Generation  uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets how long input must be quiet before a lookup starts.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithBlurGrace sets how long the dropdown survives losing focus.
func WithBlurGrace(d time.Duration) Option {
	return func(c *Controller) {
		c.blurGrace = d
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// OnChange registers a callback receiving a snapshot after every state
// change. Snapshots from concurrent lookups may arrive out of order; compare
// Generation to discard older ones.
func OnChange(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// OnResolved registers the callback invoked when a candidate is committed,
// either by auto-selection or by the user.
func OnResolved(fn func(location.Candidate)) Option {
	return func(c *Controller) {
		c.onResolved = fn
	}
}

// Controller is safe for concurrent use. Callbacks run without the lock held.
type Controller struct {
	clock       Clock
	builder     Builder
	logger      *slog.Logger
	onChange    func(Snapshot)
	onResolved  func(location.Candidate)
	timer       Timer
	blurTimer   Timer
	cancel      context.CancelFunc
	query       string
	suggestions []location.Candidate
	inflight    sync.WaitGroup
	debounce    time.Duration
	blurGrace   time.Duration
	generation  uint64
	blurSeq     uint64
	state       State
	mu          sync.Mutex
	visible     bool
	focused     bool
	closed      bool
}

// New returns a controller that builds suggestions with b.
func New(b Builder, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		builder:   b,
		logger:    logger,
		clock:     wallClock{},
		debounce:  DefaultDebounce,
		blurGrace: DefaultBlurGrace,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input handles new field text. Any pending timer or in-flight lookup is
// superseded; a lookup is scheduled only when the text is long enough.
func (c *Controller) Input(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	superseded := c.supersedeLocked()
	c.query = query

	if suggest.Searchable(query) {
		gen := c.generation
		c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen) })
		c.state = Pending
	} else {
		c.suggestions = nil
		c.visible = false
		c.state = Idle
		if superseded {
			c.state = Cancelled
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("search input", "query", query, "state", snap.State, "generation", snap.Generation)
	c.publish(snap)
}

// supersedeLocked invalidates the current cycle and reports whether a
// lookup was still in flight. A pending timer is simply stopped.
func (c *Controller) supersedeLocked() bool {
	c.generation++
	busy := c.state == Resolved || c.state == Cancelled
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return busy
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.state = Resolved
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	query := c.query
	c.inflight.Add(1)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	go c.run(ctx, gen, query)
}

func (c *Controller) run(ctx context.Context, gen uint64, query string) {
	defer c.inflight.Done()
	res := c.builder.Build(ctx, query)

	c.mu.Lock()
	if gen != c.generation {
		c.logger.Debug("dropping stale suggestions", "query", query, "generation", gen, "current", c.generation)
		if c.state != Cancelled {
			c.mu.Unlock()
			return
		}
		c.state = Idle
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		return
	}

	c.cancel()
	c.cancel = nil
	c.state = Idle

	var committed *location.Candidate
	if res.AutoSelect != nil {
		committed = res.AutoSelect
		c.commitLocked(*committed)
	} else {
		c.suggestions = res.Candidates
		c.visible = c.focused && len(c.suggestions) > 0
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("suggestions applied", "query", query, "count", len(res.Candidates), "auto_select", committed != nil)
	c.publish(snap)
	if committed != nil {
		c.resolve(*committed)
	}
}

// Focus shows the dropdown if there is anything to show.
func (c *Controller) Focus() {
	c.mu.Lock()
	c.focused = true
	c.blurSeq++
	if c.blurTimer != nil {
		c.blurTimer.Stop()
		c.blurTimer = nil
	}
	c.visible = len(c.suggestions) > 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// Blur hides the dropdown after the grace delay, leaving time for a pointer
// selection to land.
func (c *Controller) Blur() {
	c.mu.Lock()
	c.focused = false
	c.blurSeq++
	if c.blurTimer != nil {
		c.blurTimer.Stop()
	}
	seq := c.blurSeq
	c.blurTimer = c.clock.AfterFunc(c.blurGrace, func() { c.hide(seq) })
	c.mu.Unlock()
}

func (c *Controller) hide(seq uint64) {
	c.mu.Lock()
	if seq != c.blurSeq || c.focused || !c.visible {
		c.mu.Unlock()
		return
	}
	c.blurTimer = nil
	c.visible = false
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// Select commits the i-th visible suggestion.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.suggestions) {
		n := len(c.suggestions)
		c.mu.Unlock()
		return fmt.Errorf("suggestion %d out of range (have %d)", i, n)
	}
	cand := c.suggestions[i]
	c.commitLocked(cand)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.resolve(cand)
	return nil
}

// SelectCandidate commits cand, which need not come from the current list.
func (c *Controller) SelectCandidate(cand location.Candidate) {
	c.mu.Lock()
	c.commitLocked(cand)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.resolve(cand)
}

// commitLocked ends the session: later results for it are dropped.
func (c *Controller) commitLocked(cand location.Candidate) {
	c.supersedeLocked()
	c.blurSeq++
	if c.blurTimer != nil {
		c.blurTimer.Stop()
		c.blurTimer = nil
	}
	c.query = cand.DisplayName
	c.suggestions = nil
	c.visible = false
	c.state = Idle
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops timers, cancels any lookup and waits for it to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.supersedeLocked()
	if c.blurTimer != nil {
		c.blurTimer.Stop()
		c.blurTimer = nil
	}
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Controller) snapshotLocked() Snapshot {
	var s []location.Candidate
	if len(c.suggestions) > 0 {
		s = make([]location.Candidate, len(c.suggestions))
		copy(s, c.suggestions)
	}
	return Snapshot{
		State:       c.state,
		Query:       c.query,
		Suggestions: s,
		Visible:     c.visible,
		Generation:  c.generation,
	}
}

func (c *Controller) publish(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller) resolve(cand location.Candidate) {
	c.logger.Info("location resolved", "place", cand.DisplayName, "timezone", cand.Timezone,
		"lat", cand.Latitude, "lng", cand.Longitude, "source", cand.Source)
	if c.onResolved != nil {
		c.onResolved(cand)
	}
}
