package service

import (
	"log"
	"time"
)

// Event types emitted by the processing pipeline.
const (
	EventBoundaryEnter    = "boundary_enter"
	EventBoundaryExit     = "boundary_exit"
	EventTaskStatusChange = "task_status_change"
	EventDevicePowerOn    = "device_power_on"
	EventDevicePowerOff   = "device_power_off"
)

// Event is one pipeline notification. Delivery is fire-and-forget; the
// pipeline never blocks or fails on a dispatcher problem.
type Event struct {
	Type      string    `json:"type"`
	VehicleID string    `json:"vehicleId"`
	Subject   string    `json:"subject,omitempty"` // boundary or task ID
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type EventDispatcher interface {
	Dispatch(event Event)
}

// LogEventDispatcher writes events to the process log. The default sink
// when no external notification collaborator is configured.
type LogEventDispatcher struct{}

func NewLogEventDispatcher() *LogEventDispatcher {
	return &LogEventDispatcher{}
}

func (d *LogEventDispatcher) Dispatch(event Event) {
	log.Printf("Event %s vehicle=%s subject=%s detail=%s at=%s",
		event.Type, event.VehicleID, event.Subject, event.Detail,
		event.Timestamp.Format(time.RFC3339))
}
