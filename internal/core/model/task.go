package model

import (
	"time"
)

// Task statuses.
const (
	TaskNotStarted = "not_started"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
	TaskNotDone    = "not_done"
	TaskCancelled  = "cancelled"
)

// Task is a scheduled piece of field work bound to a zone and a vehicle.
// The status updater only computes status and in-zone duration; delivery of
// change notifications belongs to an external collaborator.
type Task struct {
	ID            string          `json:"id"`
	VehicleID     string          `json:"vehicleId"`
	Zone          BoundaryPolygon `json:"zone"`
	WindowStart   time.Time       `json:"windowStart"`
	WindowEnd     time.Time       `json:"windowEnd"`
	Status        string          `json:"status"`
	InZoneSeconds int64           `json:"inZoneSeconds"`
	Finalized     bool            `json:"finalized"`
}

// WindowSeconds returns the scheduled window length in whole seconds.
func (t *Task) WindowSeconds() int64 {
	return int64(t.WindowEnd.Sub(t.WindowStart).Seconds())
}

// PresenceRatio is the fraction of the scheduled window spent inside the
// task zone.
func (t *Task) PresenceRatio() float64 {
	w := t.WindowSeconds()
	if w <= 0 {
		return 0
	}
	return float64(t.InZoneSeconds) / float64(w)
}
