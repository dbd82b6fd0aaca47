package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/id"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/storage"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

const keyPrefix = "layout:"

// Manager persists layouts and turns them into boards
type Manager struct {
	store      storage.Store
	resolver   *widget.Resolver
	dispatcher *render.Dispatcher
	logger     *zap.Logger
	metrics    *monitoring.Metrics

	// mu serializes layout writes against each other and against dispatches,
	// so a tile is always rendered from the layout the store holds
	mu sync.RWMutex
}

// NewManager creates a layout manager
func NewManager(store storage.Store, resolver *widget.Resolver, dispatcher *render.Dispatcher, logger *zap.Logger, metrics *monitoring.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:      store,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

func layoutKey(layoutID string) string {
	return keyPrefix + layoutID
}

// Save validates and stores a layout. An empty ID gets a new dashboard ID and
// every occurrence without an ID gets a tile ID. Tiles dropped from a stored
// layout, or whose type, size or properties changed, are released from the
// dispatcher so no caller sees a state rendered from the old layout.
func (m *Manager) Save(ctx context.Context, layout *Layout) (*Layout, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", ErrInvalidLayout)
	}

	l := *layout
	l.Widgets = append([]widget.Occurrence(nil), layout.Widgets...)
	if l.ID == "" {
		l.ID = id.NewDashboardID().String()
	}
	l.Name = utils.SanitizeText(l.Name)
	if l.Name == "" {
		l.Name = l.ID
	}
	for i := range l.Widgets {
		if l.Widgets[i].ID == "" {
			l.Widgets[i].ID = id.NewTileID().String()
		}
	}
	if err := l.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous, err := m.load(ctx, l.ID)
	if err != nil && !errors.Is(err, ErrLayoutNotFound) {
		return nil, err
	}

	if err := m.put(ctx, &l); err != nil {
		return nil, err
	}

	if previous != nil {
		for _, occ := range previous.Widgets {
			idx := l.occurrence(occ.ID)
			if idx < 0 || occurrenceChanged(occ, l.Widgets[idx]) {
				m.dispatcher.Release(render.Key{Dashboard: l.ID, Tile: occ.ID})
			}
		}
	}

	m.metrics.IncDashboardsSaved()
	m.refreshCount(ctx)
	m.logger.Info("Layout saved",
		zap.String("layout", l.ID),
		zap.String("name", l.Name),
		zap.Int("widgets", len(l.Widgets)),
		zap.Bool("created", previous == nil))
	return &l, nil
}

// Get loads a layout
func (m *Manager) Get(ctx context.Context, layoutID string) (*Layout, error) {
	return m.load(ctx, layoutID)
}

// Exists reports whether a layout is stored under layoutID
func (m *Manager) Exists(ctx context.Context, layoutID string) (bool, error) {
	_, err := m.store.Get(ctx, layoutKey(layoutID))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns a summary of every stored layout in key order. Layouts that
// fail to decode are logged and skipped.
func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	keys, err := m.store.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		l, err := m.load(ctx, key[len(keyPrefix):])
		if err != nil {
			m.logger.Warn("Skipping unreadable layout", zap.String("key", key), zap.Error(err))
			continue
		}
		summaries = append(summaries, l.Summary())
	}
	return summaries, nil
}

// Delete removes a layout and releases its tiles
func (m *Manager) Delete(ctx context.Context, layoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exists, err := m.Exists(ctx, layoutID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrLayoutNotFound, layoutID)
	}

	if err := m.store.Delete(ctx, layoutKey(layoutID)); err != nil {
		return fmt.Errorf("delete layout %s: %w", layoutID, err)
	}
	released := m.dispatcher.ReleaseDashboard(layoutID)

	m.metrics.IncDashboardsDeleted()
	m.refreshCount(ctx)
	m.logger.Info("Layout deleted", zap.String("layout", layoutID), zap.Int("tiles_released", released))
	return nil
}

// Board resolves every occurrence of a layout and dispatches its renders.
// Each tile succeeds or fails on its own. Loading a board is a mount: settled
// tiles render again, while renders still in flight are joined.
func (m *Manager) Board(ctx context.Context, layoutID string) (*Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, err := m.load(ctx, layoutID)
	if err != nil {
		return nil, err
	}

	results := m.resolver.ResolveAll(l.Widgets)
	tiles := make([]Tile, len(results))
	for i, res := range results {
		tiles[i] = m.tile(l.ID, res, true)
	}

	return &Board{ID: l.ID, Name: l.Name, Tiles: tiles}, nil
}

// TileState returns the render state of one tile. The stored occurrence is
// resolved again, so a state is only reused when it was rendered from the
// current properties; otherwise the tile is dispatched first. With wait set
// it blocks until the render settles or ctx is done.
func (m *Manager) TileState(ctx context.Context, layoutID, tileID string, wait bool) (render.State, error) {
	key := render.Key{Dashboard: layoutID, Tile: tileID}

	m.mu.RLock()
	l, err := m.load(ctx, layoutID)
	if err != nil {
		m.mu.RUnlock()
		return render.State{}, err
	}
	idx := l.occurrence(tileID)
	if idx < 0 {
		m.mu.RUnlock()
		return render.State{}, fmt.Errorf("%w: %s in layout %s", ErrTileNotFound, tileID, layoutID)
	}
	state := m.tile(l.ID, m.resolveOne(l.Widgets[idx]), false).State
	m.mu.RUnlock()

	if !wait || state.Settled() {
		return state, nil
	}
	return m.dispatcher.Wait(ctx, key)
}

// UpdateTile merges props into a tile's stored properties, persists the
// layout, then re-resolves and re-dispatches the tile. A nil value removes
// the stored property so the option default applies again.
func (m *Manager) UpdateTile(ctx context.Context, layoutID, tileID string, props map[string]any) (*Tile, error) {
	if err := utils.ValidateDepth(props, utils.MaxPropertyDepth); err != nil {
		return nil, fmt.Errorf("%w: properties: %v", ErrInvalidLayout, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.load(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	idx := l.occurrence(tileID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s in layout %s", ErrTileNotFound, tileID, layoutID)
	}

	merged := make(map[string]any, len(l.Widgets[idx].Properties)+len(props))
	for k, v := range l.Widgets[idx].Properties {
		merged[k] = v
	}
	for k, v := range props {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	l.Widgets[idx].Properties = merged

	if err := m.put(ctx, l); err != nil {
		return nil, err
	}

	m.logger.Info("Tile properties updated",
		logging.Tile(layoutID, tileID),
		zap.Int("changed", len(props)))

	t := m.tile(layoutID, m.resolveOne(l.Widgets[idx]), false)
	return &t, nil
}

// RefreshTile re-renders a tile even though its properties are unchanged
func (m *Manager) RefreshTile(ctx context.Context, layoutID, tileID string) (*Tile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, err := m.load(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	idx := l.occurrence(tileID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s in layout %s", ErrTileNotFound, tileID, layoutID)
	}
	t := m.tile(l.ID, m.resolveOne(l.Widgets[idx]), true)
	return &t, nil
}

// occurrenceChanged reports whether a stored tile would render differently
func occurrenceChanged(prev, next widget.Occurrence) bool {
	if prev.DefinitionID != next.DefinitionID || prev.Size != next.Size {
		return true
	}
	a, errA := utils.HashJSON(prev.Properties)
	b, errB := utils.HashJSON(next.Properties)
	return errA != nil || errB != nil || a != b
}

func (m *Manager) resolveOne(occ widget.Occurrence) widget.Result {
	return m.resolver.ResolveAll([]widget.Occurrence{occ})[0]
}

// tile turns one resolution result into a board tile, dispatching its render
// or recording a placeholder error state.
func (m *Manager) tile(layoutID string, res widget.Result, force bool) Tile {
	occ := res.Occurrence
	key := render.Key{Dashboard: layoutID, Tile: occ.ID}
	t := Tile{ID: occ.ID, Widget: occ.DefinitionID, Warnings: res.Warnings}

	if res.Err != nil {
		m.metrics.RecordResolution(occ.DefinitionID, "unknown_type")
		m.logger.Warn("Tile references unknown widget type",
			logging.Tile(layoutID, occ.ID),
			zap.String("widget", occ.DefinitionID))

		t.Error = TileErrorUnknownType
		if !errors.Is(res.Err, widget.ErrUnknownWidgetType) {
			t.Error = "resolution_failed"
		}
		// A placeholder has nothing to re-render, so even a refresh keeps it
		if state, ok := m.dispatcher.State(key); ok && state.Status == render.StatusError && state.Widget == occ.DefinitionID {
			t.State = state
		} else {
			t.State = m.dispatcher.Fail(key, occ.DefinitionID, res.Err)
		}
		return t
	}

	warned := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warned = append(warned, w.Option)
		m.logger.Warn("Property coerced to default",
			logging.Tile(layoutID, occ.ID),
			zap.String("widget", occ.DefinitionID),
			zap.String("option", w.Option),
			zap.String("reason", w.Reason))
	}
	outcome := "resolved"
	if len(warned) > 0 {
		outcome = "coerced"
	}
	m.metrics.RecordResolution(occ.DefinitionID, outcome, warned...)

	t.Instance = res.Instance
	if force {
		t.State = m.dispatcher.Refresh(key, res.Instance)
	} else {
		t.State = m.dispatcher.Dispatch(key, res.Instance)
	}
	return t
}

func (m *Manager) load(ctx context.Context, layoutID string) (*Layout, error) {
	data, err := m.store.Get(ctx, layoutKey(layoutID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, layoutID)
	}
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", layoutID, err)
	}

	var l Layout
	if err := sonic.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", layoutID, err)
	}
	if l.ID == "" {
		return nil, fmt.Errorf("layout %s has empty id field", layoutID)
	}
	return &l, nil
}

func (m *Manager) put(ctx context.Context, l *Layout) error {
	l.UpdatedAt = time.Now().UTC()

	data, err := sonic.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout %s: %w", l.ID, err)
	}
	if err := utils.ValidateSize(data, utils.MaxLayoutSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := m.store.Set(ctx, layoutKey(l.ID), data); err != nil {
		return fmt.Errorf("write layout %s: %w", l.ID, err)
	}
	return nil
}

func (m *Manager) refreshCount(ctx context.Context) {
	keys, err := m.store.Keys(ctx, keyPrefix)
	if err != nil {
		return
	}
	m.metrics.SetDashboardsStored(len(keys))
}
