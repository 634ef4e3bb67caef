package protocol

import (
	"errors"
	"testing"
	"time"
)

const validRecord = "*TK310,123456789012345,240101083000,3453.0000,N,05117.0000,E,12.5,90,1,1210.5,001#"

func TestParseNativePayload(t *testing.T) {
	parser := NewParser(time.UTC)

	points, invalid, err := parser.Parse([]byte(validRecord))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(points) != 1 || len(invalid) != 0 {
		t.Fatalf("got %d points, %d invalid; want 1, 0", len(points), len(invalid))
	}
	if points[0].DeviceID != "123456789012345" {
		t.Errorf("DeviceID = %q", points[0].DeviceID)
	}
}

func TestParseEnvelopedPayload(t *testing.T) {
	parser := NewParser(time.UTC)

	body := `{"data": "` + validRecord + `"}`
	points, _, err := parser.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
}

func TestParseFailures(t *testing.T) {
	parser := NewParser(time.UTC)

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"empty body", "", ErrMalformedPayload},
		{"broken envelope", `{"data": `, ErrMalformedPayload},
		{"empty envelope", `{"other": "x"}`, ErrMalformedPayload},
		{"unknown signature", "$GPRMC,083000.00,A,3453.0000,N,05117.0000,E,6.0,90.0,010124,,,A*6A", ErrUnknownDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parser.Parse([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	if got := Detect([]byte(validRecord)); got != DeviceTK310 {
		t.Errorf("Detect() = %v, want DeviceTK310", got)
	}
	if got := Detect([]byte("*HQ,V1,...")); got != DeviceUnknown {
		t.Errorf("Detect() = %v, want DeviceUnknown", got)
	}
	if DeviceTK310.String() != "tk310" || DeviceUnknown.String() != "unknown" {
		t.Error("unexpected DeviceType names")
	}
}
