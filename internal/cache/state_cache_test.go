package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/core/model"
)

// recordingStore captures the expiration applied by the last Set.
type recordingStore struct {
	*MemoryStore
	mutex   sync.Mutex
	lastTTL time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: NewMemoryStore()}
}

func (s *recordingStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mutex.Lock()
	s.lastTTL = expiration
	s.mutex.Unlock()
	return s.MemoryStore.Set(ctx, key, value, expiration)
}

func newTestCache(store Store) *StateCache {
	return NewStateCache(store, NewMemoryKeyLock(), time.UTC)
}

func TestTTLForCurrentDay(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	c.SetNowFunc(func() time.Time {
		return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	})

	// End of day is 14h away; buffer adds one hour.
	assert.Equal(t, 15*time.Hour, c.TTLFor("2024-01-01"))
}

func TestTTLForPastDay(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	c.SetNowFunc(func() time.Time {
		return time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	})

	assert.Equal(t, 25*time.Hour, c.TTLFor("2024-01-01"))
}

func TestSaveStateAppliesTTL(t *testing.T) {
	store := newRecordingStore()
	c := newTestCache(store)
	c.SetNowFunc(func() time.Time {
		return time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	})

	require.NoError(t, c.SaveState(context.Background(), model.NewAnalysisState("v1", "2024-01-01")))
	assert.Equal(t, 2*time.Hour, store.lastTTL)

	require.NoError(t, c.SaveState(context.Background(), model.NewAnalysisState("v1", "2023-12-30")))
	assert.Equal(t, 25*time.Hour, store.lastTTL)
}

func TestGetStateMissReturnsNil(t *testing.T) {
	c := newTestCache(NewMemoryStore())

	state, err := c.GetState(context.Background(), "v1", "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestGetOrCreateRoundTrip(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	ctx := context.Background()

	created, err := c.GetOrCreate(ctx, "v1", "2024-01-01", func() (*model.AnalysisState, error) {
		return model.NewAnalysisState("v1", "2024-01-01"), nil
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// Second call must hit the fast path and not re-create.
	again, err := c.GetOrCreate(ctx, "v1", "2024-01-01", func() (*model.AnalysisState, error) {
		t.Fatal("createFn called despite cached state")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, created.VehicleID, again.VehicleID)
	assert.Equal(t, created.Date, again.Date)
}

func TestGetOrCreateConcurrentSingleCreate(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	ctx := context.Background()

	var creates int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.GetOrCreate(ctx, "v1", "2024-01-01", func() (*model.AnalysisState, error) {
				atomic.AddInt32(&creates, 1)
				// Widen the race window a little.
				time.Sleep(10 * time.Millisecond)
				return model.NewAnalysisState("v1", "2024-01-01"), nil
			})
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&creates), "creation callback must run exactly once")
}

// A writer that cannot get the lock in time still makes progress.
func TestGetOrCreateLockTimeoutFallsBack(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	c.SetLockTimeout(20 * time.Millisecond)
	ctx := context.Background()

	lock := NewMemoryKeyLock()
	c.lock = lock

	// Hold the lock so the acquire times out.
	release, acquired := lock.Acquire(ctx, stateKey("v1", "2024-01-01"), time.Second)
	require.True(t, acquired)
	defer release()

	state, err := c.GetOrCreate(ctx, "v1", "2024-01-01", func() (*model.AnalysisState, error) {
		return model.NewAnalysisState("v1", "2024-01-01"), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, state)
}

func TestUpdateStatePassesCurrentState(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	ctx := context.Background()

	// First touch sees nil.
	_, err := c.UpdateState(ctx, "v1", "2024-01-01", func(cur *model.AnalysisState) (*model.AnalysisState, error) {
		assert.Nil(t, cur)
		s := model.NewAnalysisState("v1", "2024-01-01")
		s.StoppageCount = 1
		return s, nil
	})
	require.NoError(t, err)

	// Second update sees the persisted state.
	updated, err := c.UpdateState(ctx, "v1", "2024-01-01", func(cur *model.AnalysisState) (*model.AnalysisState, error) {
		require.NotNil(t, cur)
		cur.StoppageCount++
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.StoppageCount)
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.SaveState(ctx, model.NewAnalysisState("v1", "2024-01-01")))
	require.NoError(t, c.Invalidate(ctx, "v1", "2024-01-01"))

	state, err := c.GetState(ctx, "v1", "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestInvalidateForVehicleClearsTrailingWindow(t *testing.T) {
	c := newTestCache(NewMemoryStore())
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	c.SetNowFunc(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		require.NoError(t, c.SaveState(ctx, model.NewAnalysisState("v1", date)))
	}

	require.NoError(t, c.InvalidateForVehicle(ctx, "v1"))

	for i := 0; i < 9; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		state, err := c.GetState(ctx, "v1", date)
		require.NoError(t, err)
		if i < 7 {
			assert.Nil(t, state, "day -%d should be cleared", i)
		} else {
			assert.NotNil(t, state, "day -%d outside the window should survive", i)
		}
	}
}

func TestMemoryKeyLockMutualExclusion(t *testing.T) {
	lock := NewMemoryKeyLock()
	ctx := context.Background()

	release1, ok := lock.Acquire(ctx, "k", 50*time.Millisecond)
	require.True(t, ok)

	_, ok = lock.Acquire(ctx, "k", 20*time.Millisecond)
	assert.False(t, ok, "second acquire must time out while held")

	release1()

	release2, ok := lock.Acquire(ctx, "k", 50*time.Millisecond)
	assert.True(t, ok, "acquire must succeed after release")
	release2()
}
