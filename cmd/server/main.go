package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"fieldtrack/internal/analysis"
	"fieldtrack/internal/api/router"
	"fieldtrack/internal/cache"
	"fieldtrack/internal/config"
	"fieldtrack/internal/core/repository"
	"fieldtrack/internal/core/service"
)

func main() {
	cfg := config.LoadConfig()
	loc := cfg.Location()
	testMode := strings.ToLower(os.Getenv("TEST_MODE")) == "true"

	// Repositories: MongoDB in production, in-memory in test mode.
	var (
		deviceRepo   repository.DeviceRepository
		metricsRepo  repository.MetricsRepository
		invalidRepo  repository.InvalidRecordRepository
		taskRepo     repository.TaskRepository
		boundaryRepo repository.BoundaryRepository
	)
	if testMode {
		log.Println("TEST_MODE enabled, using in-memory repositories")
		deviceRepo = repository.NewInMemoryDeviceRepository()
		metricsRepo = repository.NewInMemoryMetricsRepository()
		invalidRepo = repository.NewInMemoryInvalidRecordRepository()
		taskRepo = repository.NewInMemoryTaskRepository()
		boundaryRepo = repository.NewInMemoryBoundaryRepository()
	} else {
		mongoConfig := config.NewMongoConfig()
		db, err := config.ConnectMongoDB(mongoConfig)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		deviceRepo = repository.NewMongoDeviceRepository(db)
		metricsRepo = repository.NewMongoMetricsRepository(db)
		invalidRepo = repository.NewMongoInvalidRecordRepository(db)
		taskRepo = repository.NewMongoTaskRepository(db)
		boundaryRepo = repository.NewMongoBoundaryRepository(db)
	}

	// Cache: Redis when configured, in-process otherwise.
	var (
		store cache.Store
		lock  cache.KeyLock
	)
	if redisStore := cache.NewRedisStore(cfg.RedisURL); redisStore != nil {
		defer redisStore.Close()
		store = redisStore
		lock = cache.NewRedisKeyLock(redisStore.Client())
	} else {
		log.Println("Using in-memory cache")
		store = cache.NewMemoryStore()
		lock = cache.NewMemoryKeyLock()
	}

	stateCache := cache.NewStateCache(store, lock, loc)
	thresholds := cfg.Thresholds()
	detector := analysis.NewWorkTimeDetector(store, loc, thresholds)
	dispatcher := service.NewLogEventDispatcher()

	deviceService := service.NewDeviceService(deviceRepo, stateCache)
	geofenceService := service.NewGeofenceService(boundaryRepo, store, dispatcher)
	taskZoneService := service.NewTaskZoneService(taskRepo, dispatcher, cfg.PresenceRatio)
	telemetryService := service.NewTelemetryService(
		deviceRepo, metricsRepo, invalidRepo, taskRepo,
		stateCache, store, detector, geofenceService, taskZoneService, dispatcher,
		service.TelemetryConfig{
			Location:     loc,
			Thresholds:   thresholds,
			MedianWindow: cfg.MedianWindow,
			ProcessNoise: cfg.ProcessNoise,
		},
	)

	r := router.NewRouter(deviceService, telemetryService)

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
