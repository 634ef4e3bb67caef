package analysis

import (
	"context"
	"fmt"
	"time"

	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
)

// WorkTimes are the detected daily boundaries for one vehicle. Fields stay
// nil until the underlying event shows up in the point stream, so repeated
// detection over a growing day fills them in progressively.
type WorkTimes struct {
	OnTime        *time.Time `json:"onTime,omitempty"`
	StartWorkTime *time.Time `json:"startWorkTime,omitempty"`
	EndWorkTime   *time.Time `json:"endWorkTime,omitempty"`
}

// Complete reports whether all three boundaries have been found.
func (w WorkTimes) Complete() bool {
	return w.OnTime != nil && w.StartWorkTime != nil && w.EndWorkTime != nil
}

// WorkTimeDetector scans a day's points for the on / start-work / end-work
// boundaries and caches the result per (vehicle, date) until end of day.
type WorkTimeDetector struct {
	store cache.Store
	loc   *time.Location
	th    Thresholds
	now   func() time.Time
}

func NewWorkTimeDetector(store cache.Store, loc *time.Location, th Thresholds) *WorkTimeDetector {
	if loc == nil {
		loc = time.UTC
	}
	return &WorkTimeDetector{
		store: store,
		loc:   loc,
		th:    th,
		now:   time.Now,
	}
}

// SetNowFunc overrides the clock; used by tests.
func (d *WorkTimeDetector) SetNowFunc(now func() time.Time) {
	d.now = now
}

func workTimesKey(vehicleID, date string) string {
	return fmt.Sprintf("worktimes:%s:%s", vehicleID, date)
}

// Detect merges boundaries found in the given points into the cached result
// for the day. Points must be time-ordered. When a previously missing
// boundary is found the cache entry is dropped and rewritten rather than
// overwritten in place, so detected times only ever appear, never regress.
func (d *WorkTimeDetector) Detect(ctx context.Context, vehicleID, date string, points []model.GpsPoint, window model.WorkWindow) (WorkTimes, error) {
	windowStart, windowEnd, err := resolveWindow(window, date, d.loc)
	if err != nil {
		return WorkTimes{}, err
	}

	var times WorkTimes
	key := workTimesKey(vehicleID, date)
	if d.store != nil {
		if err := d.store.Get(ctx, key, &times); err != nil && err != cache.ErrMiss {
			return WorkTimes{}, err
		}
	}

	changed := false
	for _, p := range points {
		if times.Complete() {
			break
		}
		if p.Timestamp.Before(windowStart) {
			continue
		}

		if times.OnTime == nil && p.PowerOn() {
			t := p.Timestamp
			times.OnTime = &t
			changed = true
		}
		if times.StartWorkTime == nil && p.PowerOn() && p.Speed > d.th.RealWorkSpeed {
			t := p.Timestamp
			times.StartWorkTime = &t
			changed = true
		}
		if times.EndWorkTime == nil && !p.Timestamp.Before(windowEnd) && !p.PowerOn() && p.Speed == 0 {
			t := p.Timestamp
			times.EndWorkTime = &t
			changed = true
		}
	}

	if changed && d.store != nil {
		if err := d.store.Delete(ctx, key); err != nil {
			return times, err
		}
		if err := d.store.Set(ctx, key, times, d.ttlUntilEndOfDay(date)); err != nil {
			return times, err
		}
	}
	return times, nil
}

func (d *WorkTimeDetector) ttlUntilEndOfDay(date string) time.Duration {
	now := d.now().In(d.loc)
	day, err := time.ParseInLocation("2006-01-02", date, d.loc)
	if err != nil {
		return time.Hour
	}
	endOfDay := day.AddDate(0, 0, 1)
	ttl := endOfDay.Sub(now)
	if ttl <= 0 {
		ttl = time.Hour
	}
	return ttl
}
