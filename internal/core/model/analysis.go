package model

import (
	"time"
)

// Landmark is a once-committed timestamp marking a notable event in a
// vehicle's day (power-on, first sustained movement). The zero value is
// unset; Commit succeeds at most once so recomputation can never overwrite
// an already detected time.
type Landmark struct {
	Committed bool      `json:"committed"`
	Time      time.Time `json:"time,omitempty"`
}

// Commit sets the landmark time if it has not been set yet. Returns true
// only on the transition from unset to committed.
func (l *Landmark) Commit(t time.Time) bool {
	if l.Committed {
		return false
	}
	l.Committed = true
	l.Time = t
	return true
}

// Segment kinds.
const (
	SegmentMovement = "movement"
	SegmentStoppage = "stoppage"
)

// Segment is a maximal contiguous run of one movement classification.
// Derived output regenerated from state transitions, numbered by
// DetailIndex for stable ordering in reports.
type Segment struct {
	Kind           string    `json:"kind"`
	DetailIndex    int       `json:"detailIndex"`
	StartIndex     int       `json:"startIndex"`
	StartTimestamp time.Time `json:"startTimestamp"`
	EndTimestamp   time.Time `json:"endTimestamp"`
	Distance       float64   `json:"distance,omitempty"` // meters, movement only
	Duration       int64     `json:"duration"`           // whole seconds
}

// AnalysisState is the resumable per-vehicle per-day state of the
// incremental analysis engine. It is exclusively owned by its cache entry;
// all mutation goes through the cache's locked accessors.
type AnalysisState struct {
	VehicleID string `json:"vehicleId"`
	Date      string `json:"date"` // local calendar day, 2006-01-02

	LastProcessedTimestamp time.Time `json:"lastProcessedTimestamp"`
	LastProcessedIndex     int       `json:"lastProcessedIndex"`
	FirstPointTimestamp    time.Time `json:"firstPointTimestamp"`

	// Sticky landmarks.
	DeviceOnTime      Landmark `json:"deviceOnTime"`
	FirstMovementTime Landmark `json:"firstMovementTime"`

	// Accumulated metrics.
	MovementDistance    float64 `json:"movementDistance"` // meters
	MovementDuration    int64   `json:"movementDuration"` // seconds
	StoppageDuration    int64   `json:"stoppageDuration"` // seconds
	StoppageDurationOn  int64   `json:"stoppageDurationOn"`
	StoppageDurationOff int64   `json:"stoppageDurationOff"`
	StoppageCount       int     `json:"stoppageCount"`
	MaxSpeed            float64 `json:"maxSpeed"` // km/h

	// Current segment bookkeeping.
	IsMoving              bool      `json:"isMoving"`
	IsStopped             bool      `json:"isStopped"`
	SegmentStartIndex     int       `json:"segmentStartIndex"`
	SegmentStartTimestamp time.Time `json:"segmentStartTimestamp"`
	SegmentStartLatitude  float64   `json:"segmentStartLatitude"`
	SegmentStartLongitude float64   `json:"segmentStartLongitude"`
	SegmentDistance       float64   `json:"segmentDistance"`

	// Continuity fields for segment math on the next batch.
	LastLatitude     float64 `json:"lastLatitude"`
	LastLongitude    float64 `json:"lastLongitude"`
	LastLatitudeRad  float64 `json:"lastLatitudeRad"`
	LastLongitudeRad float64 `json:"lastLongitudeRad"`
	LastSpeed        float64 `json:"lastSpeed"`
	LastStatus       int     `json:"lastStatus"`

	// Anti-jitter bookkeeping for first-movement confirmation. The
	// candidate time is the start of the current consecutive-moving run;
	// it becomes the landmark once the run reaches the confirmation count.
	ConsecutiveMoving     int       `json:"consecutiveMoving"`
	MovementCandidateTime time.Time `json:"movementCandidateTime,omitempty"`

	Segments []Segment `json:"segments,omitempty"`
}

// NewAnalysisState returns the empty state for one vehicle and day.
func NewAnalysisState(vehicleID, date string) *AnalysisState {
	return &AnalysisState{
		VehicleID: vehicleID,
		Date:      date,
	}
}

// Started reports whether any point has been processed yet.
func (s *AnalysisState) Started() bool {
	return !s.LastProcessedTimestamp.IsZero()
}
