package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldtrack/internal/core/model"
	"fieldtrack/internal/protocol/tk310"
)

// Parse failure classes. ErrUnknownDevice is non-fatal to callers: the
// payload is logged and dropped. ErrMalformedPayload is the only fatal
// outcome (the body was not a recognizable envelope or native payload).
var (
	ErrMalformedPayload = errors.New("malformed telemetry payload")
	ErrUnknownDevice    = errors.New("unknown device signature")
)

// DeviceType identifies a supported tracker family. The set is closed;
// adding a family means adding a variant and a Detect case.
type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceTK310
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTK310:
		return tk310.ProtocolName
	default:
		return "unknown"
	}
}

// Detect classifies a native payload by its signature prefix.
func Detect(payload []byte) DeviceType {
	if bytes.HasPrefix(payload, []byte(tk310.Signature)) {
		return DeviceTK310
	}
	return DeviceUnknown
}

// envelope is the optional outer JSON wrapper mobile apps put around the
// native device payload.
type envelope struct {
	Data string `json:"data"`
}

// Parser turns one raw device transmission into canonical points plus the
// rejected records of the batch.
type Parser struct {
	tk310 *tk310.Decoder
}

func NewParser(loc *time.Location) *Parser {
	return &Parser{
		tk310: tk310.NewDecoder(loc),
	}
}

// Parse unwraps the optional JSON envelope, detects the device family and
// decodes the batch. Per-record failures never fail the call; they come
// back as InvalidRecords alongside the valid points.
func (p *Parser) Parse(raw []byte) ([]model.GpsPoint, []*model.InvalidRecord, error) {
	payload := bytes.TrimSpace(raw)
	if len(payload) == 0 {
		return nil, nil, ErrMalformedPayload
	}

	if payload[0] == '{' {
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if env.Data == "" {
			return nil, nil, fmt.Errorf("%w: empty envelope", ErrMalformedPayload)
		}
		payload = bytes.TrimSpace([]byte(env.Data))
	}

	switch Detect(payload) {
	case DeviceTK310:
		return p.tk310.Decode(payload)
	default:
		return nil, nil, ErrUnknownDevice
	}
}
