package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fieldtrack/internal/analysis"
	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/repository"
	"fieldtrack/internal/filter"
	"fieldtrack/internal/protocol"
)

// ProcessResult summarizes one processed transmission.
type ProcessResult struct {
	PointsAccepted  int      `json:"pointsAccepted"`
	RecordsRejected int      `json:"recordsRejected"`
	Dates           []string `json:"dates,omitempty"`
}

type TelemetryService interface {
	// ProcessRawData runs one device transmission through the full pipeline:
	// parse, smooth, advance per-day analysis state, persist metrics, then
	// geofence and task side effects.
	ProcessRawData(ctx context.Context, deviceID string, raw []byte) (*ProcessResult, error)
	GetDailyMetrics(vehicleID, date string) (*model.DailyMetrics, error)
	GetVehicleMetrics(vehicleID string, limit int) ([]*model.DailyMetrics, error)
	GetWorkTimes(ctx context.Context, vehicleID, date string) (analysis.WorkTimes, error)
	GetTrack(ctx context.Context, vehicleID, date string) ([]model.GpsPoint, error)
	GetInvalidRecords(limit int) ([]*model.InvalidRecord, error)
}

type telemetryService struct {
	parser      *protocol.Parser
	deviceRepo  repository.DeviceRepository
	metricsRepo repository.MetricsRepository
	invalidRepo repository.InvalidRecordRepository
	taskRepo    repository.TaskRepository
	stateCache  *cache.StateCache
	store       cache.Store
	detector    *analysis.WorkTimeDetector
	geofence    GeofenceService
	taskZone    TaskZoneService
	dispatcher  EventDispatcher

	loc          *time.Location
	thresholds   analysis.Thresholds
	medianWindow int
	processNoise float64
}

// TelemetryConfig carries the pipeline tunables.
type TelemetryConfig struct {
	Location     *time.Location
	Thresholds   analysis.Thresholds
	MedianWindow int
	ProcessNoise float64
}

func NewTelemetryService(
	deviceRepo repository.DeviceRepository,
	metricsRepo repository.MetricsRepository,
	invalidRepo repository.InvalidRecordRepository,
	taskRepo repository.TaskRepository,
	stateCache *cache.StateCache,
	store cache.Store,
	detector *analysis.WorkTimeDetector,
	geofence GeofenceService,
	taskZone TaskZoneService,
	dispatcher EventDispatcher,
	cfg TelemetryConfig,
) TelemetryService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MedianWindow == 0 {
		cfg.MedianWindow = filter.DefaultMedianWindow
	}
	if cfg.ProcessNoise == 0 {
		cfg.ProcessNoise = filter.DefaultProcessNoise
	}
	return &telemetryService{
		parser:       protocol.NewParser(cfg.Location),
		deviceRepo:   deviceRepo,
		metricsRepo:  metricsRepo,
		invalidRepo:  invalidRepo,
		taskRepo:     taskRepo,
		stateCache:   stateCache,
		store:        store,
		detector:     detector,
		geofence:     geofence,
		taskZone:     taskZone,
		dispatcher:   dispatcher,
		loc:          cfg.Location,
		thresholds:   cfg.Thresholds,
		medianWindow: cfg.MedianWindow,
		processNoise: cfg.ProcessNoise,
	}
}

func (s *telemetryService) resolveDevice(deviceID string) (*model.Device, error) {
	if deviceID == "" {
		return nil, errors.New("invalid device ID")
	}

	device, err := s.deviceRepo.FindByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		// Devices report their IMEI, not our internal ID.
		device, err = s.deviceRepo.FindByIMEI(deviceID)
		if err != nil {
			return nil, err
		}
	}
	if device == nil {
		return nil, errors.New("unknown device: " + deviceID)
	}
	return device, nil
}

func (s *telemetryService) ProcessRawData(ctx context.Context, deviceID string, raw []byte) (*ProcessResult, error) {
	device, err := s.resolveDevice(deviceID)
	if err != nil {
		return nil, err
	}

	points, invalid, err := s.parser.Parse(raw)
	if errors.Is(err, protocol.ErrUnknownDevice) {
		// Unrecognized signature is not fatal: keep the payload for
		// inspection and acknowledge the transmission.
		log.Printf("Unknown device signature from %s, payload dropped", deviceID)
		s.recordInvalid(model.NewInvalidRecord(string(raw), "unknown device signature", ""))
		return &ProcessResult{RecordsRejected: 1}, nil
	}
	if err != nil {
		return nil, err
	}

	for _, rec := range invalid {
		s.recordInvalid(rec)
	}

	result := &ProcessResult{
		PointsAccepted:  len(points),
		RecordsRejected: len(invalid),
	}
	if len(points) == 0 {
		return result, nil
	}

	// Fresh chain per transmission so no filter state crosses batches.
	chain := filter.NewChain(
		filter.NewMedianStage(s.medianWindow),
		filter.NewKalmanStage(s.processNoise),
	)
	smoothed := chain.Run(points)

	window := model.WorkWindow{}
	if device.WorkWindow != nil {
		window = *device.WorkWindow
	}

	for _, group := range groupByLocalDate(smoothed, s.loc) {
		result.Dates = append(result.Dates, group.date)
		if err := s.advanceDay(ctx, device, group.date, group.points, window); err != nil {
			return nil, err
		}
		s.appendTrack(ctx, device.VehicleID, group.date, group.points)
	}

	s.dispatchPowerEvents(device.VehicleID, smoothed)
	s.geofence.Evaluate(ctx, device, smoothed)
	s.applyTasks(device.VehicleID, smoothed)
	s.touchDevice(device, smoothed[len(smoothed)-1].Timestamp)

	return result, nil
}

// advanceDay moves one day's analysis state forward under the cache lock
// and republishes the day's metrics record.
func (s *telemetryService) advanceDay(ctx context.Context, device *model.Device, date string, points []model.GpsPoint, window model.WorkWindow) error {
	updated, err := s.stateCache.UpdateState(ctx, device.VehicleID, date, func(cur *model.AnalysisState) (*model.AnalysisState, error) {
		if cur == nil {
			cur = model.NewAnalysisState(device.VehicleID, date)
		}
		return analysis.Advance(cur, points, window, s.loc, s.thresholds)
	})
	if err != nil {
		return fmt.Errorf("advance analysis for %s/%s: %w", device.VehicleID, date, err)
	}

	if err := s.metricsRepo.Upsert(model.MetricsFromState(updated)); err != nil {
		log.Printf("Metrics upsert failed for %s/%s: %v", device.VehicleID, date, err)
	}

	if _, err := s.detector.Detect(ctx, device.VehicleID, date, points, window); err != nil {
		log.Printf("Work-time detection failed for %s/%s: %v", device.VehicleID, date, err)
	}
	return nil
}

func (s *telemetryService) dispatchPowerEvents(vehicleID string, points []model.GpsPoint) {
	for i := 1; i < len(points); i++ {
		if points[i].Status == points[i-1].Status {
			continue
		}
		eventType := EventDevicePowerOff
		if points[i].PowerOn() {
			eventType = EventDevicePowerOn
		}
		s.dispatcher.Dispatch(Event{
			Type:      eventType,
			VehicleID: vehicleID,
			Timestamp: points[i].Timestamp,
		})
	}
}

// applyTasks feeds the batch to every active task of the vehicle and
// finalizes tasks whose windows have closed. Best effort per task.
func (s *telemetryService) applyTasks(vehicleID string, points []model.GpsPoint) {
	last := points[len(points)-1].Timestamp
	tasks, err := s.taskRepo.FindActiveByVehicle(vehicleID, points[0].Timestamp)
	if err != nil {
		log.Printf("Task lookup failed for vehicle %s: %v", vehicleID, err)
		return
	}

	for _, task := range tasks {
		updated, err := s.taskZone.Apply(task, points)
		if err != nil {
			log.Printf("Task %s update failed: %v", task.ID, err)
			continue
		}
		if last.After(updated.WindowEnd) {
			if _, err := s.taskZone.Finalize(updated); err != nil {
				log.Printf("Task %s finalize failed: %v", task.ID, err)
			}
		}
	}
}

func (s *telemetryService) touchDevice(device *model.Device, at time.Time) {
	device.Status = "active"
	device.LastUpdate = at
	if err := s.deviceRepo.Update(device); err != nil {
		log.Printf("Device %s update failed: %v", device.ID, err)
	}
}

func (s *telemetryService) recordInvalid(rec *model.InvalidRecord) {
	if err := s.invalidRepo.Create(rec); err != nil {
		log.Printf("Invalid record persistence failed: %v", err)
	}
}

func (s *telemetryService) GetDailyMetrics(vehicleID, date string) (*model.DailyMetrics, error) {
	if vehicleID == "" || date == "" {
		return nil, errors.New("invalid vehicle ID or date")
	}
	return s.metricsRepo.FindByVehicleAndDate(vehicleID, date)
}

func (s *telemetryService) GetVehicleMetrics(vehicleID string, limit int) ([]*model.DailyMetrics, error) {
	if vehicleID == "" {
		return nil, errors.New("invalid vehicle ID")
	}
	return s.metricsRepo.FindByVehicle(vehicleID, limit)
}

// GetWorkTimes returns the day's detected boundaries. Detection over an
// empty batch just surfaces the cached result.
func (s *telemetryService) GetWorkTimes(ctx context.Context, vehicleID, date string) (analysis.WorkTimes, error) {
	if vehicleID == "" || date == "" {
		return analysis.WorkTimes{}, errors.New("invalid vehicle ID or date")
	}

	window := model.WorkWindow{}
	device, err := s.deviceRepo.FindByVehicleID(vehicleID)
	if err != nil {
		return analysis.WorkTimes{}, err
	}
	if device != nil && device.WorkWindow != nil {
		window = *device.WorkWindow
	}
	return s.detector.Detect(ctx, vehicleID, date, nil, window)
}

func (s *telemetryService) GetInvalidRecords(limit int) ([]*model.InvalidRecord, error) {
	return s.invalidRepo.FindRecent(limit)
}

func trackKey(vehicleID, date string) string {
	return fmt.Sprintf("track:%s:%s", vehicleID, date)
}

// appendTrack extends the day's cached smoothed track. Best effort: the
// track is a rendering aid, not a system of record.
func (s *telemetryService) appendTrack(ctx context.Context, vehicleID, date string, points []model.GpsPoint) {
	if s.store == nil {
		return
	}
	key := trackKey(vehicleID, date)

	var track []model.GpsPoint
	if err := s.store.Get(ctx, key, &track); err != nil && err != cache.ErrMiss {
		log.Printf("Track read failed for %s/%s: %v", vehicleID, date, err)
		return
	}
	track = append(track, points...)
	if err := s.store.Set(ctx, key, track, s.stateCache.TTLFor(date)); err != nil {
		log.Printf("Track write failed for %s/%s: %v", vehicleID, date, err)
	}
}

// GetTrack returns the day's smoothed track as accumulated so far.
func (s *telemetryService) GetTrack(ctx context.Context, vehicleID, date string) ([]model.GpsPoint, error) {
	if vehicleID == "" || date == "" {
		return nil, errors.New("invalid vehicle ID or date")
	}
	if s.store == nil {
		return nil, nil
	}

	var track []model.GpsPoint
	err := s.store.Get(ctx, trackKey(vehicleID, date), &track)
	if err == cache.ErrMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// dateGroup is one local calendar day's slice of a batch, in arrival order.
type dateGroup struct {
	date   string
	points []model.GpsPoint
}

func groupByLocalDate(points []model.GpsPoint, loc *time.Location) []dateGroup {
	var groups []dateGroup
	index := make(map[string]int)
	for _, p := range points {
		date := p.Timestamp.In(loc).Format("2006-01-02")
		i, exists := index[date]
		if !exists {
			i = len(groups)
			index[date] = i
			groups = append(groups, dateGroup{date: date})
		}
		groups[i].points = append(groups[i].points, p)
	}
	return groups
}
