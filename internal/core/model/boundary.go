package model

import (
	"fmt"
	"time"
)

// LatLon is a single polygon vertex.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundaryPolygon is an ordered ring of vertices describing a farm or
// task-zone boundary. Read-only reference data.
type BoundaryPolygon struct {
	ID       string   `json:"id"`
	FarmID   string   `json:"farmId,omitempty"`
	Name     string   `json:"name"`
	Vertices []LatLon `json:"vertices"`
}

// WorkWindow is the configured daily work window for one vehicle. Times are
// local wall-clock "15:04" strings; End before Start means the window wraps
// past midnight into the next day.
type WorkWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Resolve anchors the window on the given calendar day in loc and returns
// absolute start and end instants. A wrapping window ends on the next day.
func (w WorkWindow) Resolve(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+w.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid work window start: %v", err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", date+" "+w.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid work window end: %v", err)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
