package model

import (
	"time"

	"fieldtrack/internal/core/util"
)

// InvalidRecord is one rejected telemetry record kept for operator
// inspection. A bad record never aborts its batch.
type InvalidRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Raw       string    `json:"raw"`
	Reason    string    `json:"reason"`
	Protocol  string    `json:"protocol,omitempty"`
}

// NewInvalidRecord captures a rejected raw record with its reason.
func NewInvalidRecord(raw, reason, protocol string) *InvalidRecord {
	return &InvalidRecord{
		ID:        util.GenerateID(),
		Timestamp: time.Now(),
		Raw:       raw,
		Reason:    reason,
		Protocol:  protocol,
	}
}
