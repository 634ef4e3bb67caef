package model

import (
	"time"

	"fieldtrack/internal/core/util"
)

// DailyMetrics is the persisted per-vehicle per-day record derived from the
// analysis state. Written after every processed batch (upsert by vehicle and
// date).
type DailyMetrics struct {
	ID               string    `json:"id"`
	VehicleID        string    `json:"vehicleId"`
	TaskID           string    `json:"taskId,omitempty"`
	Date             string    `json:"date"` // 2006-01-02
	TraveledDistance float64   `json:"traveledDistance"` // meters
	WorkDuration     int64     `json:"workDuration"`     // seconds
	StoppageDuration int64     `json:"stoppageDuration"` // seconds
	StoppageCount    int       `json:"stoppageCount"`
	Efficiency       float64   `json:"efficiency"`   // work / (work + stoppage)
	AverageSpeed     float64   `json:"averageSpeed"` // km/h
	MaxSpeed         float64   `json:"maxSpeed"`     // km/h
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MetricsFromState flattens an analysis state into its persisted record.
func MetricsFromState(state *AnalysisState) *DailyMetrics {
	m := &DailyMetrics{
		ID:               util.GenerateID(),
		VehicleID:        state.VehicleID,
		Date:             state.Date,
		TraveledDistance: state.MovementDistance,
		WorkDuration:     state.MovementDuration,
		StoppageDuration: state.StoppageDuration,
		StoppageCount:    state.StoppageCount,
		MaxSpeed:         state.MaxSpeed,
		UpdatedAt:        time.Now(),
	}
	total := state.MovementDuration + state.StoppageDuration
	if total > 0 {
		m.Efficiency = float64(state.MovementDuration) / float64(total)
	}
	if state.MovementDuration > 0 {
		// meters over seconds, reported in km/h.
		m.AverageSpeed = state.MovementDistance / float64(state.MovementDuration) * 3.6
	}
	return m
}
