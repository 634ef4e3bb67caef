package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
)

// Exercises the state cache under contention: N goroutines race on
// get-or-create for the same (vehicle, day) key and the tool reports how
// many creations actually ran. Against Redis (REDIS_URL set) this checks
// the distributed lock; without it, the in-memory lock.
func main() {
	var (
		store cache.Store
		lock  cache.KeyLock
	)
	if redisStore := cache.NewRedisStore(os.Getenv("REDIS_URL")); redisStore != nil {
		defer redisStore.Close()
		store = redisStore
		lock = cache.NewRedisKeyLock(redisStore.Client())
		log.Println("Probing Redis-backed cache")
	} else {
		store = cache.NewMemoryStore()
		lock = cache.NewMemoryKeyLock()
		log.Println("Probing in-memory cache")
	}

	stateCache := cache.NewStateCache(store, lock, time.UTC)
	date := time.Now().UTC().Format("2006-01-02")

	var (
		creates int
		mutex   sync.Mutex
		wg      sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stateCache.GetOrCreate(context.Background(), "probe-vehicle", date, func() (*model.AnalysisState, error) {
				mutex.Lock()
				creates++
				mutex.Unlock()
				time.Sleep(50 * time.Millisecond)
				return model.NewAnalysisState("probe-vehicle", date), nil
			})
			if err != nil {
				log.Printf("GetOrCreate failed: %v", err)
			}
		}()
	}
	wg.Wait()

	log.Printf("16 racing callers, %d creation(s) executed", creates)
	if creates != 1 {
		log.Println("WARNING: expected exactly one creation")
	}

	if err := stateCache.Invalidate(context.Background(), "probe-vehicle", date); err != nil {
		log.Printf("Cleanup failed: %v", err)
	}
}
