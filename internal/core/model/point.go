package model

import (
	"time"
)

// Device power status as reported in the tracker record.
const (
	StatusOff = 0
	StatusOn  = 1
)

// GpsPoint is one canonical positional report. Points are immutable once
// parsed; smoothing stages work on copies.
type GpsPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Speed     float64   `json:"speed"`   // km/h
	Heading   float64   `json:"heading"` // degrees, 0-359
	Status    int       `json:"status"`  // StatusOff or StatusOn
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId"` // source device IMEI
	Protocol  string    `json:"protocol"`
}

// PowerOn reports whether the device flagged itself as powered on.
func (p *GpsPoint) PowerOn() bool {
	return p.Status == StatusOn
}
