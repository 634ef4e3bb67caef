package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"fieldtrack/internal/core/util"
)

// Device is a registered tracker or mobile app installation. IMEI is the
// identifier devices report in their payloads; VehicleID is the vehicle the
// device is mounted on.
type Device struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IMEI       string    `json:"imei"`
	VehicleID  string    `json:"vehicleId"`
	FarmID     string    `json:"farmId,omitempty"`
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"lastUpdate"`
	CreatedAt  time.Time `json:"createdAt"`
	Protocol   string    `json:"protocol"`
	ApiKey     string    `json:"apiKey,omitempty"`
	ApiSecret  string    `json:"-"` // Not included in JSON responses

	// WorkWindow is the vehicle's configured daily work window. Nil means
	// the whole day counts as working time.
	WorkWindow *WorkWindow `json:"workWindow,omitempty"`
}

func NewDevice(name, imei, vehicleID string) *Device {
	apiKey, _ := generateRandomKey(32)
	apiSecret, _ := generateRandomKey(32)

	return &Device{
		ID:         util.GenerateID(),
		Name:       name,
		IMEI:       imei,
		VehicleID:  vehicleID,
		Status:     "inactive",
		LastUpdate: time.Now(),
		CreatedAt:  time.Now(),
		Protocol:   "tk310",
		ApiKey:     apiKey,
		ApiSecret:  apiSecret,
	}
}

// NewTestDevice creates a new test device instance
func NewTestDevice(imei string) *Device {
	return &Device{
		ID:         imei,
		Name:       "Test Device",
		IMEI:       imei,
		VehicleID:  "vehicle-" + imei,
		Status:     "active",
		LastUpdate: time.Now(),
		CreatedAt:  time.Now(),
		Protocol:   "test",
	}
}

func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (d *Device) ValidateCredentials(apiKey, apiSecret string) bool {
	return d.ApiKey == apiKey && d.ApiSecret == apiSecret
}

// IsTestDevice checks if this is a test device
func (d *Device) IsTestDevice() bool {
	return strings.HasPrefix(d.IMEI, "test-") || strings.HasPrefix(d.IMEI, "demo-")
}
