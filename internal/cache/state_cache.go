package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fieldtrack/internal/core/model"
)

// TTL policy for analysis state entries: the current day's state lives
// until end of day plus a one hour buffer for late transmissions; a past
// day's state is immutable and gets a flat 25 hours from save time.
const pastDayTTL = 25 * time.Hour

const endOfDayBuffer = time.Hour

// DefaultLockTimeout bounds how long a writer waits for the per-key lock
// before degrading to lock-free best effort.
const DefaultLockTimeout = 10 * time.Second

// StateCache is the durable, keyed, TTL-bound store for AnalysisState.
// All mutation of a (vehicle, day) state goes through GetOrCreate or
// UpdateState, which serialize writers via the key lock.
type StateCache struct {
	store       Store
	lock        KeyLock
	loc         *time.Location
	lockTimeout time.Duration
	now         func() time.Time
}

func NewStateCache(store Store, lock KeyLock, loc *time.Location) *StateCache {
	if loc == nil {
		loc = time.UTC
	}
	return &StateCache{
		store:       store,
		lock:        lock,
		loc:         loc,
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
	}
}

// SetLockTimeout overrides the lock wait bound; used by tests.
func (c *StateCache) SetLockTimeout(timeout time.Duration) {
	c.lockTimeout = timeout
}

// SetNowFunc overrides the clock; used by tests.
func (c *StateCache) SetNowFunc(now func() time.Time) {
	c.now = now
}

func stateKey(vehicleID, date string) string {
	return fmt.Sprintf("analysis:%s:%s", vehicleID, date)
}

// GetState returns the cached state for the key, or nil on a miss.
func (c *StateCache) GetState(ctx context.Context, vehicleID, date string) (*model.AnalysisState, error) {
	var state model.AnalysisState
	err := c.store.Get(ctx, stateKey(vehicleID, date), &state)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState persists the state under the TTL policy for its date.
func (c *StateCache) SaveState(ctx context.Context, state *model.AnalysisState) error {
	return c.store.Set(ctx, stateKey(state.VehicleID, state.Date), state, c.TTLFor(state.Date))
}

// TTLFor returns the expiration applied to a state saved now for the given
// calendar day.
func (c *StateCache) TTLFor(date string) time.Duration {
	now := c.now().In(c.loc)
	if date == now.Format("2006-01-02") {
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc).AddDate(0, 0, 1)
		return endOfDay.Add(endOfDayBuffer).Sub(now)
	}
	return pastDayTTL
}

// GetOrCreate returns the cached state, creating and persisting it with
// createFn on a miss. The creation path holds the per-key lock and
// double-checks the cache after acquiring it, so concurrent callers run
// createFn at most once. When the lock cannot be acquired within the
// timeout the call proceeds lock-free: liveness over strict consistency,
// accepting a small duplicate-create risk under extreme contention.
func (c *StateCache) GetOrCreate(ctx context.Context, vehicleID, date string, createFn func() (*model.AnalysisState, error)) (*model.AnalysisState, error) {
	state, err := c.GetState(ctx, vehicleID, date)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	key := stateKey(vehicleID, date)
	release, acquired := c.lock.Acquire(ctx, key, c.lockTimeout)
	if !acquired {
		log.Printf("Lock timeout on %s, proceeding without lock", key)
	}
	defer release()

	if acquired {
		// Another writer may have created the state while we waited.
		state, err = c.GetState(ctx, vehicleID, date)
		if err != nil {
			return nil, err
		}
		if state != nil {
			return state, nil
		}
	}

	state, err = createFn()
	if err != nil {
		return nil, err
	}
	if err := c.SaveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateState applies updateFn to the current state (nil on first touch)
// under the same locking discipline as GetOrCreate and persists the result.
func (c *StateCache) UpdateState(ctx context.Context, vehicleID, date string, updateFn func(*model.AnalysisState) (*model.AnalysisState, error)) (*model.AnalysisState, error) {
	key := stateKey(vehicleID, date)
	release, acquired := c.lock.Acquire(ctx, key, c.lockTimeout)
	if !acquired {
		log.Printf("Lock timeout on %s, proceeding without lock", key)
	}
	defer release()

	state, err := c.GetState(ctx, vehicleID, date)
	if err != nil {
		return nil, err
	}

	updated, err := updateFn(state)
	if err != nil {
		return nil, err
	}
	if err := c.SaveState(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Invalidate drops the cached state for one (vehicle, day) key.
func (c *StateCache) Invalidate(ctx context.Context, vehicleID, date string) error {
	return c.store.Delete(ctx, stateKey(vehicleID, date))
}

// InvalidateForVehicle clears a trailing 7-day window for the vehicle,
// covering late-arriving corrections to vehicle configuration such as a
// changed work window.
func (c *StateCache) InvalidateForVehicle(ctx context.Context, vehicleID string) error {
	now := c.now().In(c.loc)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		if err := c.Invalidate(ctx, vehicleID, date); err != nil {
			return err
		}
	}
	return nil
}
