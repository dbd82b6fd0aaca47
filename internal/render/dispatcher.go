package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// DefaultSubscriberBuffer is the channel size used when Subscribe gets 0
const DefaultSubscriberBuffer = 64

// Options configures a Dispatcher
type Options struct {
	// Timeout bounds each asynchronous render. Zero disables it.
	Timeout       time.Duration
	Logger        *zap.Logger
	Metrics       *monitoring.Metrics
	Fingerprinter *utils.Fingerprinter
}

// Dispatcher runs widget renders and tracks one state per tile.
//
// A tile has at most one render in flight. Dispatching new properties starts
// a new generation: the tile goes back to loading, the previous render's
// context is cancelled, and its result is dropped if it still arrives.
type Dispatcher struct {
	mu      sync.Mutex
	tiles   map[Key]*tile
	subs    map[uint64]chan Update
	nextSub uint64
	gen     uint64

	timeout time.Duration
	logger  *zap.Logger
	metrics *monitoring.Metrics
	fp      *utils.Fingerprinter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type tile struct {
	state   State
	cancel  context.CancelFunc
	settled chan struct{}
	closed  bool
}

// settle wakes everyone waiting on the current generation
func (t *tile) settle() {
	if !t.closed {
		close(t.settled)
		t.closed = true
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// NewDispatcher creates a dispatcher
func NewDispatcher(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fp := opts.Fingerprinter
	if fp == nil {
		fp = utils.NewFingerprinter(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		tiles:   make(map[Key]*tile),
		subs:    make(map[uint64]chan Update),
		timeout: opts.Timeout,
		logger:  logger,
		metrics: opts.Metrics,
		fp:      fp,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Dispatch renders inst for key and returns the tile's state right after
// dispatch: settled for inline renderers, loading for asynchronous ones.
// Dispatching the same properties again is a no-op returning the current
// state.
func (d *Dispatcher) Dispatch(key Key, inst *widget.Instance) State {
	return d.dispatch(key, inst, false)
}

// Refresh re-renders key even when its properties did not change
func (d *Dispatcher) Refresh(key Key, inst *widget.Instance) State {
	return d.dispatch(key, inst, true)
}

func (d *Dispatcher) dispatch(key Key, inst *widget.Instance, force bool) State {
	if inst == nil || inst.Definition == nil || inst.Definition.Render == nil {
		widgetID := ""
		if inst != nil {
			widgetID = inst.DefinitionID
		}
		return d.fail(key, widgetID, ErrNoDefinition)
	}

	fingerprint := d.fp.Of(inst.DefinitionID, inst.Properties)

	d.mu.Lock()
	if t, ok := d.tiles[key]; ok && !force && t.state.Fingerprint == fingerprint {
		state := t.state
		d.mu.Unlock()
		return state
	}
	d.mu.Unlock()

	if inst.Definition.IsInline() {
		return d.dispatchInline(key, inst, fingerprint)
	}
	return d.dispatchAsync(key, inst, fingerprint)
}

// dispatchInline claims a generation before rendering so that a slow inline
// render never overwrites the result of a newer dispatch. The loading state
// is not published; subscribers only see the settled result.
func (d *Dispatcher) dispatchInline(key Key, inst *widget.Instance, fingerprint utils.Fingerprint) State {
	d.mu.Lock()
	t := d.replace(key, inst.DefinitionID)
	t.state.Status = StatusLoading
	t.state.Fingerprint = fingerprint
	gen := t.state.Generation
	d.mu.Unlock()

	timer := monitoring.NewTimer()
	data, err := safeRender(d.ctx, inst)

	d.mu.Lock()
	defer d.mu.Unlock()

	if current, ok := d.tiles[key]; !ok || current != t {
		d.logger.Debug("Discarded stale render result",
			logging.Tile(key.Dashboard, key.Tile),
			zap.String("widget", inst.DefinitionID),
			zap.Uint64("generation", gen))
		d.metrics.IncStaleDiscarded(inst.DefinitionID)
		if ok {
			return current.state
		}
		return settledState(t.state, fingerprint, data, err)
	}

	t.state = settledState(t.state, fingerprint, data, err)
	t.settle()

	d.recordSettled(key, inst.DefinitionID, t.state, err, timer.Elapsed())
	d.publish(key, t.state)
	return t.state
}

func (d *Dispatcher) dispatchAsync(key Key, inst *widget.Instance, fingerprint utils.Fingerprint) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Another caller may have dispatched the same properties meanwhile
	if t, ok := d.tiles[key]; ok && t.state.Status == StatusLoading && t.state.Fingerprint == fingerprint {
		return t.state
	}

	t := d.replace(key, inst.DefinitionID)
	t.state.Status = StatusLoading
	t.state.Fingerprint = fingerprint

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(d.ctx, d.timeout)
	} else {
		ctx, cancel = context.WithCancel(d.ctx)
	}
	t.cancel = cancel

	d.publish(key, t.state)

	d.wg.Add(1)
	go d.run(ctx, key, inst, t.state.Generation)

	return t.state
}

// replace starts a new generation for key, superseding any previous render.
// Generations are unique across the dispatcher, so a render that outlives a
// Release never matches a later dispatch of the same key. Caller holds d.mu.
func (d *Dispatcher) replace(key Key, widgetID string) *tile {
	prev, existed := d.tiles[key]
	if existed {
		prev.settle()
	}

	d.gen++
	t := &tile{
		state: State{
			Widget:     widgetID,
			Generation: d.gen,
			UpdatedAt:  time.Now(),
		},
		settled: make(chan struct{}),
	}
	d.tiles[key] = t

	if !existed {
		d.metrics.SetTilesActive(len(d.tiles))
	}
	return t
}

func (d *Dispatcher) run(ctx context.Context, key Key, inst *widget.Instance, gen uint64) {
	defer d.wg.Done()

	timer := monitoring.NewTimer()
	data, err := safeRender(ctx, inst)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %v", ErrRenderTimeout, d.timeout, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tiles[key]
	if !ok || t.state.Generation != gen {
		d.logger.Debug("Discarded stale render result",
			logging.Tile(key.Dashboard, key.Tile),
			zap.String("widget", inst.DefinitionID),
			zap.Uint64("generation", gen))
		d.metrics.IncStaleDiscarded(inst.DefinitionID)
		return
	}

	t.state = settledState(t.state, t.state.Fingerprint, data, err)
	t.settle()

	d.recordSettled(key, inst.DefinitionID, t.state, err, timer.Elapsed())
	d.publish(key, t.state)
}

func safeRender(ctx context.Context, inst *widget.Instance) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()
	return inst.Definition.Render.Render(ctx, inst)
}

func settledState(prev State, fingerprint utils.Fingerprint, data any, err error) State {
	s := State{
		Widget:      prev.Widget,
		Fingerprint: fingerprint,
		Generation:  prev.Generation,
		UpdatedAt:   time.Now(),
	}
	if err != nil {
		s.Status = StatusError
		s.Error = ErrorMessageKey
		s.Detail = err.Error()
		return s
	}
	s.Status = StatusSuccess
	s.Data = data
	return s
}

// recordSettled logs and counts a settled render. Caller holds d.mu.
func (d *Dispatcher) recordSettled(key Key, widgetID string, state State, err error, elapsed time.Duration) {
	d.metrics.RecordRender(widgetID, string(state.Status), elapsed)
	if err != nil {
		d.logger.Warn("Tile render failed",
			logging.Tile(key.Dashboard, key.Tile),
			zap.String("widget", widgetID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	d.logger.Debug("Tile rendered",
		logging.Tile(key.Dashboard, key.Tile),
		zap.String("widget", widgetID),
		zap.Duration("elapsed", elapsed))
}

// fail records an error state for a tile that cannot be rendered at all
func (d *Dispatcher) fail(key Key, widgetID string, err error) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.replace(key, widgetID)
	failed := Failed(widgetID, err)
	failed.Generation = t.state.Generation
	t.state = failed
	t.settle()

	d.recordSettled(key, widgetID, t.state, err, 0)
	d.publish(key, t.state)
	return t.state
}

// Fail marks key as failed without rendering, e.g. for an unknown widget type
func (d *Dispatcher) Fail(key Key, widgetID string, err error) State {
	return d.fail(key, widgetID, err)
}

// State returns the current state of key
func (d *Dispatcher) State(key Key) (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tiles[key]
	if !ok {
		return State{}, false
	}
	return t.state, true
}

// Wait blocks until key's current generation settles or ctx is done. If the
// tile is re-dispatched while waiting, Wait follows the newest generation.
func (d *Dispatcher) Wait(ctx context.Context, key Key) (State, error) {
	for {
		d.mu.Lock()
		t, ok := d.tiles[key]
		if !ok {
			d.mu.Unlock()
			return State{}, fmt.Errorf("%w: %s", ErrUnknownTile, key)
		}
		if t.state.Settled() {
			state := t.state
			d.mu.Unlock()
			return state, nil
		}
		settled := t.settled
		d.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

// Release stops tracking key and cancels its in-flight render
func (d *Dispatcher) Release(key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.release(key)
	d.metrics.SetTilesActive(len(d.tiles))
}

// ReleaseDashboard releases every tile of a dashboard
func (d *Dispatcher) ReleaseDashboard(dashboard string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	released := 0
	for key := range d.tiles {
		if key.Dashboard == dashboard {
			d.release(key)
			released++
		}
	}
	d.metrics.SetTilesActive(len(d.tiles))
	return released
}

func (d *Dispatcher) release(key Key) {
	t, ok := d.tiles[key]
	if !ok {
		return
	}
	delete(d.tiles, key)
	t.settle()
}

// Snapshot returns the states of every tile on a dashboard
func (d *Dispatcher) Snapshot(dashboard string) map[string]State {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]State)
	for key, t := range d.tiles {
		if key.Dashboard == dashboard {
			out[key.Tile] = t.state
		}
	}
	return out
}

// Len returns the number of tracked tiles
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tiles)
}

// Subscribe returns a channel receiving every state change and a function
// that ends the subscription. Slow subscribers miss updates rather than
// blocking renders; State always has the latest value.
func (d *Dispatcher) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Update, buffer)

	d.mu.Lock()
	d.nextSub++
	id := d.nextSub
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if _, ok := d.subs[id]; ok {
				delete(d.subs, id)
				close(ch)
			}
		})
	}
}

// publish fans a state out to subscribers. Caller holds d.mu.
func (d *Dispatcher) publish(key Key, state State) {
	for id, ch := range d.subs {
		select {
		case ch <- Update{Key: key, State: state}:
		default:
			d.logger.Warn("Dropped tile update for slow subscriber",
				zap.Uint64("subscriber", id),
				logging.Tile(key.Dashboard, key.Tile))
		}
	}
}

// Close cancels all in-flight renders, waits for them to return and closes
// every subscription.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
}
