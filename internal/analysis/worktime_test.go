package analysis

import (
	"context"
	"testing"
	"time"

	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
)

func newTestDetector(store cache.Store) *WorkTimeDetector {
	d := NewWorkTimeDetector(store, time.UTC, DefaultThresholds())
	d.SetNowFunc(func() time.Time {
		return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	})
	return d
}

func TestDetectAllBoundaries(t *testing.T) {
	d := newTestDetector(cache.NewMemoryStore())
	window := model.WorkWindow{Start: "06:00", End: "18:00"}

	on := time.Date(2024, 1, 1, 6, 10, 0, 0, time.UTC)
	work := time.Date(2024, 1, 1, 6, 40, 0, 0, time.UTC)
	off := time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)

	points := []model.GpsPoint{
		// Before the window, must be skipped.
		testPoint(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC), 34.88, 50.95, 0, model.StatusOn),
		testPoint(on, 34.88, 50.95, 0, model.StatusOn),
		testPoint(work, 34.89, 50.95, 12, model.StatusOn),
		testPoint(off, 34.89, 50.95, 0, model.StatusOff),
	}

	times, err := d.Detect(context.Background(), "v1", "2024-01-01", points, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if times.OnTime == nil || !times.OnTime.Equal(on) {
		t.Errorf("OnTime = %v, want %v", times.OnTime, on)
	}
	if times.StartWorkTime == nil || !times.StartWorkTime.Equal(work) {
		t.Errorf("StartWorkTime = %v, want %v", times.StartWorkTime, work)
	}
	if times.EndWorkTime == nil || !times.EndWorkTime.Equal(off) {
		t.Errorf("EndWorkTime = %v, want %v", times.EndWorkTime, off)
	}
	if !times.Complete() {
		t.Errorf("Complete() = false, want true")
	}
}

func TestDetectProgressiveDisclosure(t *testing.T) {
	store := cache.NewMemoryStore()
	d := newTestDetector(store)
	window := model.WorkWindow{Start: "06:00", End: "18:00"}
	ctx := context.Background()

	on := time.Date(2024, 1, 1, 6, 10, 0, 0, time.UTC)
	times, err := d.Detect(ctx, "v1", "2024-01-01", []model.GpsPoint{
		testPoint(on, 34.88, 50.95, 0, model.StatusOn),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if times.OnTime == nil {
		t.Fatalf("OnTime not detected")
	}
	if times.StartWorkTime != nil || times.EndWorkTime != nil {
		t.Fatalf("start/end detected prematurely")
	}

	// A later batch fills in start-work; the earlier on-time must survive
	// even though the new batch carries no power-on transition of its own.
	work := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	times, err = d.Detect(ctx, "v1", "2024-01-01", []model.GpsPoint{
		testPoint(work, 34.89, 50.95, 12, model.StatusOn),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if times.OnTime == nil || !times.OnTime.Equal(on) {
		t.Errorf("OnTime = %v, want cached %v", times.OnTime, on)
	}
	if times.StartWorkTime == nil || !times.StartWorkTime.Equal(work) {
		t.Errorf("StartWorkTime = %v, want %v", times.StartWorkTime, work)
	}
}

func TestDetectDoesNotMoveEarlierBoundary(t *testing.T) {
	d := newTestDetector(cache.NewMemoryStore())
	window := model.WorkWindow{Start: "06:00", End: "18:00"}
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	if _, err := d.Detect(ctx, "v1", "2024-01-01", []model.GpsPoint{
		testPoint(first, 34.88, 50.95, 0, model.StatusOn),
	}, window); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	// A replay carrying an earlier qualifying point must not rewrite the
	// already detected time.
	times, err := d.Detect(ctx, "v1", "2024-01-01", []model.GpsPoint{
		testPoint(time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC), 34.88, 50.95, 0, model.StatusOn),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if times.OnTime == nil || !times.OnTime.Equal(first) {
		t.Errorf("OnTime = %v, want %v", times.OnTime, first)
	}
}

func TestDetectEndWorkRequiresPowerOffAndZeroSpeed(t *testing.T) {
	d := newTestDetector(cache.NewMemoryStore())
	window := model.WorkWindow{Start: "06:00", End: "18:00"}

	afterEnd := time.Date(2024, 1, 1, 18, 15, 0, 0, time.UTC)
	times, err := d.Detect(context.Background(), "v1", "2024-01-01", []model.GpsPoint{
		// Still rolling past window end: not an end-work boundary.
		testPoint(afterEnd, 34.89, 50.95, 5, model.StatusOn),
		testPoint(afterEnd.Add(5*time.Minute), 34.89, 50.95, 0, model.StatusOn),
		testPoint(afterEnd.Add(10*time.Minute), 34.89, 50.95, 0, model.StatusOff),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	want := afterEnd.Add(10 * time.Minute)
	if times.EndWorkTime == nil || !times.EndWorkTime.Equal(want) {
		t.Errorf("EndWorkTime = %v, want %v", times.EndWorkTime, want)
	}
}

func TestDetectWrappingWindow(t *testing.T) {
	d := newTestDetector(cache.NewMemoryStore())
	// Night shift wrapping midnight into January 2nd.
	window := model.WorkWindow{Start: "22:00", End: "04:00"}

	on := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)
	off := time.Date(2024, 1, 2, 4, 10, 0, 0, time.UTC)
	times, err := d.Detect(context.Background(), "v1", "2024-01-01", []model.GpsPoint{
		testPoint(on, 34.88, 50.95, 0, model.StatusOn),
		testPoint(off, 34.88, 50.95, 0, model.StatusOff),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if times.OnTime == nil || !times.OnTime.Equal(on) {
		t.Errorf("OnTime = %v, want %v", times.OnTime, on)
	}
	if times.EndWorkTime == nil || !times.EndWorkTime.Equal(off) {
		t.Errorf("EndWorkTime = %v, want %v", times.EndWorkTime, off)
	}
}

func TestDetectWithoutStore(t *testing.T) {
	d := NewWorkTimeDetector(nil, time.UTC, DefaultThresholds())
	window := model.WorkWindow{Start: "06:00", End: "18:00"}

	on := time.Date(2024, 1, 1, 6, 10, 0, 0, time.UTC)
	times, err := d.Detect(context.Background(), "v1", "2024-01-01", []model.GpsPoint{
		testPoint(on, 34.88, 50.95, 0, model.StatusOn),
	}, window)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if times.OnTime == nil {
		t.Errorf("OnTime not detected without a store")
	}
}
