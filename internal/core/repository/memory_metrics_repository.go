package repository

import (
	"sort"
	"sync"

	"fieldtrack/internal/core/model"
)

type inMemoryMetricsRepository struct {
	records map[string]*model.DailyMetrics // keyed by vehicleID+date
	mutex   sync.RWMutex
}

func NewInMemoryMetricsRepository() MetricsRepository {
	return &inMemoryMetricsRepository{
		records: make(map[string]*model.DailyMetrics),
	}
}

func metricsKey(vehicleID, date string) string {
	return vehicleID + ":" + date
}

func (r *inMemoryMetricsRepository) Upsert(metrics *model.DailyMetrics) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.records[metricsKey(metrics.VehicleID, metrics.Date)] = metrics
	return nil
}

func (r *inMemoryMetricsRepository) FindByVehicleAndDate(vehicleID, date string) (*model.DailyMetrics, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if m, exists := r.records[metricsKey(vehicleID, date)]; exists {
		return m, nil
	}
	return nil, nil
}

func (r *inMemoryMetricsRepository) FindByVehicle(vehicleID string, limit int) ([]*model.DailyMetrics, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.DailyMetrics
	for _, m := range r.records {
		if m.VehicleID == vehicleID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
