package trade

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/events"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/store"
)

// State blob keys. The active blob is absent whenever no trade is active.
const (
	keySaved  = "trades:saved"
	keyActive = "trades:active"
)

// guidanceActions maps a verdict level to the action line shown with it.
var guidanceActions = map[GuidanceStatus]string{
	GuidanceHold:    "Hold position",
	GuidanceCaution: "Tighten risk and watch closely",
	GuidanceExit:    "Exit the position now",
}

// Manager owns the bookmarked-trade list and the single active-trade slot.
// Every mutation happens under one lock and is persisted before it returns.
// The delayed CONFIRMING -> MANAGING transition is a cancellable timer that
// additionally re-checks trade identity before firing, so a close or
// re-selection during the confirmation window can never resurrect a trade.
type Manager struct {
	store          store.Store
	bus            *events.Bus
	logger         zerolog.Logger
	defaultMaxRisk float64
	confirmDelay   time.Duration

	mu           sync.Mutex
	saved        []SavedTrade
	active       *ActiveTrade
	confirmTimer *time.Timer
}

// NewManager creates a trade manager backed by the given blob store.
func NewManager(st store.Store, bus *events.Bus, logger zerolog.Logger, defaultMaxRisk float64, confirmDelay time.Duration) *Manager {
	return &Manager{
		store:          st,
		bus:            bus,
		logger:         logger,
		defaultMaxRisk: defaultMaxRisk,
		confirmDelay:   confirmDelay,
	}
}

// Load restores persisted state. Called once at process start; a missing blob
// is a normal empty state, not an error.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data, err := m.store.Get(ctx, keySaved); err == nil {
		if err := json.Unmarshal(data, &m.saved); err != nil {
			return err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if data, err := m.store.Get(ctx, keyActive); err == nil {
		var active ActiveTrade
		if err := json.Unmarshal(data, &active); err != nil {
			return err
		}
		m.active = &active
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return nil
}

// Saved returns a copy of the bookmarked trades.
func (m *Manager) Saved() []SavedTrade {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SavedTrade, len(m.saved))
	copy(out, m.saved)
	return out
}

// Active returns a copy of the active trade, or nil when the slot is empty.
func (m *Manager) Active() *ActiveTrade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCopy()
}

// Bookmark creates a SavedTrade from a scenario. NEUTRAL scenarios and
// already-bookmarked scenarios are silent no-ops.
func (m *Manager) Bookmark(ctx context.Context, req BookmarkRequest) (*SavedTrade, bool) {
	if req.Direction != DirectionLong && req.Direction != DirectionShort {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.saved {
		if s.ScenarioID == req.ScenarioID {
			return nil, false
		}
	}

	saved := SavedTrade{
		ID:         uuid.NewString(),
		ScenarioID: req.ScenarioID,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Setup:      req.Setup,
		Timeframe:  req.Timeframe,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		Targets:    append([]float64(nil), req.Targets...),
		CreatedAt:  time.Now().UTC(),
		Contract:   req.Contract,
	}
	m.saved = append(m.saved, saved)
	m.persistSaved(ctx)

	m.bus.Publish(events.EventTradeBookmarked, map[string]interface{}{
		"id": saved.ID, "symbol": saved.Symbol, "setup": saved.Setup,
	})
	return &saved, true
}

// RemoveSaved deletes a bookmark. Removing the trade currently in the active
// slot also closes it, which suppresses any pending confirmation transition.
func (m *Manager) RemoveSaved(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, s := range m.saved {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	m.saved = append(m.saved[:idx], m.saved[idx+1:]...)
	m.persistSaved(ctx)

	if m.active != nil && m.active.ID == id {
		m.closeLocked(ctx, "removed")
	}

	m.bus.Publish(events.EventTradeRemoved, map[string]interface{}{"id": id})
	return true
}

// Select places a bookmarked trade into the active slot, replacing whatever
// was there. The trade starts SELECTED with the default risk budget and an
// auto-computed position size.
func (m *Manager) Select(ctx context.Context, id string) (*ActiveTrade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *SavedTrade
	for i := range m.saved {
		if m.saved[i].ID == id {
			found = &m.saved[i]
			break
		}
	}
	if found == nil {
		return nil, false
	}

	m.cancelConfirmLocked()

	active := &ActiveTrade{
		SavedTrade: *found,
		State:      StateSelected,
		MaxRisk:    m.defaultMaxRisk,
	}
	active.Targets = append([]float64(nil), found.Targets...)
	active.PositionSize = PositionSizeFor(active.MaxRisk, &active.SavedTrade)
	m.active = active
	m.persistActive(ctx)

	m.bus.Publish(events.EventTradeSelected, map[string]interface{}{
		"id": active.ID, "symbol": active.Symbol, "positionSize": active.PositionSize,
	})
	return m.activeCopy(), true
}

// UpdateParams merge-patches the editable fields. It is a no-op when no trade
// is active or the trade has already reached MANAGING.
func (m *Manager) UpdateParams(ctx context.Context, patch ParamsPatch) (*ActiveTrade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.State == StateManaging {
		return nil, false
	}

	if patch.EntryPrice != nil {
		m.active.EntryPrice = *patch.EntryPrice
	}
	if patch.MaxRisk != nil {
		m.active.MaxRisk = *patch.MaxRisk
	}
	if patch.Contract != nil {
		m.active.Contract = *patch.Contract
	}
	if patch.PositionSize != nil && *patch.PositionSize >= 0 {
		m.active.PositionSize = *patch.PositionSize
	}
	m.persistActive(ctx)

	m.bus.Publish(events.EventTradeUpdated, map[string]interface{}{"id": m.active.ID})
	return m.activeCopy(), true
}

// MarkEntered moves a SELECTED trade to CONFIRMING immediately for responsive
// feedback, then to MANAGING after the confirmation delay, provided the same
// trade still occupies the slot when the timer fires.
func (m *Manager) MarkEntered(ctx context.Context) (*ActiveTrade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.State != StateSelected {
		return nil, false
	}

	m.active.State = StateConfirming
	m.persistActive(ctx)

	id := m.active.ID
	m.cancelConfirmLocked()
	m.confirmTimer = time.AfterFunc(m.confirmDelay, func() {
		m.completeEntry(id)
	})

	m.bus.Publish(events.EventTradeEntered, map[string]interface{}{"id": id})
	return m.activeCopy(), true
}

// completeEntry finishes the delayed CONFIRMING -> MANAGING transition. The
// identity and state checks make a stale timer firing after a close or
// re-selection harmless.
func (m *Manager) completeEntry(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ID != id || m.active.State != StateConfirming {
		return
	}

	now := time.Now().UTC()
	m.active.State = StateManaging
	m.active.EnteredAt = &now
	m.persistActive(context.Background())

	m.bus.Publish(events.EventTradeManaging, map[string]interface{}{"id": id})
}

// Close terminates the active trade and clears the slot. No history is kept by
// this subsystem. Closing with an empty slot is a silent no-op.
func (m *Manager) Close(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(ctx, "closed")
}

// Invalidate is behaviorally identical to Close today. It stays a separate
// operation so invalidation can diverge later without an API change.
func (m *Manager) Invalidate(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(ctx, "invalidated")
}

func (m *Manager) closeLocked(ctx context.Context, reason string) bool {
	if m.active == nil {
		return false
	}

	m.cancelConfirmLocked()

	id := m.active.ID
	m.active = nil
	if err := m.store.Delete(ctx, keyActive); err != nil {
		m.logger.Warn().Err(err).Msg("failed to delete active trade blob")
	}

	m.bus.Publish(events.EventTradeClosed, map[string]interface{}{"id": id, "reason": reason})
	return true
}

// AppendGuidance prepends a guidance verdict to the active trade's log. To
// keep the log meaningful it records only status changes, and it suppresses a
// first-ever HOLD: a trade that was never in trouble needs no log at all. A
// trade that went CAUTION and recovered does log the HOLD transition.
func (m *Manager) AppendGuidance(ctx context.Context, status GuidanceStatus, evidence []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return false
	}
	if len(m.active.Guidance) == 0 && status == GuidanceHold {
		return false
	}
	if len(m.active.Guidance) > 0 && m.active.Guidance[0].Status == status {
		return false
	}

	msg := GuidanceMessage{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Action:    guidanceActions[status],
		Evidence:  append([]string(nil), evidence...),
	}
	m.active.Guidance = append([]GuidanceMessage{msg}, m.active.Guidance...)
	m.persistActive(ctx)

	m.bus.Publish(events.EventGuidanceAppended, map[string]interface{}{
		"id": m.active.ID, "status": string(status), "evidence": msg.Evidence,
	})
	return true
}

func (m *Manager) cancelConfirmLocked() {
	if m.confirmTimer != nil {
		m.confirmTimer.Stop()
		m.confirmTimer = nil
	}
}

func (m *Manager) activeCopy() *ActiveTrade {
	if m.active == nil {
		return nil
	}
	cp := *m.active
	cp.Targets = append([]float64(nil), m.active.Targets...)
	cp.Guidance = append([]GuidanceMessage(nil), m.active.Guidance...)
	if m.active.EnteredAt != nil {
		t := *m.active.EnteredAt
		cp.EnteredAt = &t
	}
	return &cp
}

// Persistence failures are logged, never surfaced: trade management keeps
// working on in-memory state and the next successful write catches up.

func (m *Manager) persistSaved(ctx context.Context) {
	data, err := json.Marshal(m.saved)
	if err == nil {
		err = m.store.Set(ctx, keySaved, data)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist saved trades")
	}
}

func (m *Manager) persistActive(ctx context.Context) {
	data, err := json.Marshal(m.active)
	if err == nil {
		err = m.store.Set(ctx, keyActive, data)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist active trade")
	}
}
