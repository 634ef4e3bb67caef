package filter

import (
	"math"
	"testing"
	"time"

	"fieldtrack/internal/core/model"
)

func makeTrack(coords [][2]float64) []model.GpsPoint {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	points := make([]model.GpsPoint, len(coords))
	for i, c := range coords {
		points[i] = model.GpsPoint{
			Latitude:  c[0],
			Longitude: c[1],
			Speed:     10,
			Status:    model.StatusOn,
			Timestamp: base.Add(time.Duration(i) * 10 * time.Second),
			DeviceID:  "123456789012345",
		}
	}
	return points
}

func TestMedianStageWindowCoercion(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{4, 5},
		{3, 3},
		{2, 3},
		{0, 3},
		{6, 7},
	}
	for _, tt := range tests {
		if got := NewMedianStage(tt.in).Window(); got != tt.want {
			t.Errorf("NewMedianStage(%d).Window() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMedianStageShortBatchPassThrough(t *testing.T) {
	points := makeTrack([][2]float64{{35.70, 51.40}, {35.71, 51.41}, {35.72, 51.42}})
	out := NewMedianStage(5).Apply(points)
	for i := range points {
		if out[i].Latitude != points[i].Latitude || out[i].Longitude != points[i].Longitude {
			t.Errorf("point %d modified in short batch", i)
		}
	}
}

func TestMedianStageRejectsOutlier(t *testing.T) {
	points := makeTrack([][2]float64{
		{35.700, 51.400},
		{35.701, 51.401},
		{36.500, 52.300}, // GPS spike
		{35.703, 51.403},
		{35.704, 51.404},
	})
	out := NewMedianStage(3).Apply(points)

	if out[2].Latitude > 35.8 {
		t.Errorf("spike latitude survived median filter: %v", out[2].Latitude)
	}
}

// Output coordinates must be values that appeared as input within each
// index's window, never interpolated ones.
func TestMedianStageValuesFromWindow(t *testing.T) {
	coords := [][2]float64{
		{35.700, 51.410}, {35.705, 51.402}, {35.702, 51.408},
		{35.709, 51.401}, {35.701, 51.405}, {35.706, 51.409},
		{35.703, 51.407},
	}
	points := makeTrack(coords)
	stage := NewMedianStage(5)
	out := stage.Apply(points)

	half := stage.Window() / 2
	for i := range out {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > len(points)-1 {
			end = len(points) - 1
		}

		latSeen, lonSeen := false, false
		for j := start; j <= end; j++ {
			if points[j].Latitude == out[i].Latitude {
				latSeen = true
			}
			if points[j].Longitude == out[i].Longitude {
				lonSeen = true
			}
		}
		if !latSeen || !lonSeen {
			t.Errorf("index %d: output (%v, %v) not drawn from window samples",
				i, out[i].Latitude, out[i].Longitude)
		}
	}
}

func TestMedianStagePreservesNonCoordinateFields(t *testing.T) {
	points := makeTrack([][2]float64{
		{35.700, 51.400}, {35.701, 51.401}, {35.702, 51.402},
		{35.703, 51.403}, {35.704, 51.404},
	})
	points[2].Speed = 42
	points[2].Heading = 180

	out := NewMedianStage(3).Apply(points)
	if out[2].Speed != 42 || out[2].Heading != 180 || !out[2].Timestamp.Equal(points[2].Timestamp) {
		t.Error("median stage modified non-coordinate fields")
	}
}

func TestKalmanStageSmoothsJitter(t *testing.T) {
	points := makeTrack([][2]float64{
		{35.7000, 51.4000},
		{35.7001, 51.4001},
		{35.7030, 51.4030}, // jitter
		{35.7003, 51.4003},
		{35.7004, 51.4004},
	})
	out := NewKalmanStage(DefaultProcessNoise).Apply(points)

	rawJump := math.Abs(points[2].Latitude - points[1].Latitude)
	filteredJump := math.Abs(out[2].Latitude - out[1].Latitude)
	if filteredJump >= rawJump {
		t.Errorf("kalman did not damp the jump: raw %v, filtered %v", rawJump, filteredJump)
	}

	// First point anchors the filter.
	if out[0].Latitude != points[0].Latitude {
		t.Errorf("first point moved: %v", out[0].Latitude)
	}
}

func TestKalmanStagePassesNonFiniteThrough(t *testing.T) {
	points := makeTrack([][2]float64{
		{35.7000, 51.4000},
		{math.NaN(), 51.4001},
		{35.7002, 51.4002},
	})
	out := NewKalmanStage(DefaultProcessNoise).Apply(points)
	if !math.IsNaN(out[1].Latitude) {
		t.Errorf("non-finite point was filtered: %v", out[1].Latitude)
	}
}

func TestKalmanStageFreshStatePerBatch(t *testing.T) {
	stage := NewKalmanStage(DefaultProcessNoise)

	first := makeTrack([][2]float64{{35.70, 51.40}, {35.7001, 51.4001}})
	stage.Apply(first)

	// A second batch far away must not be dragged toward the first one.
	second := makeTrack([][2]float64{{40.00, 45.00}, {40.0001, 45.0001}})
	out := stage.Apply(second)
	if out[0].Latitude != 40.00 {
		t.Errorf("stale filter state leaked across batches: %v", out[0].Latitude)
	}
}

func TestChainOrder(t *testing.T) {
	chain := NewChain(NewMedianStage(DefaultMedianWindow), NewKalmanStage(DefaultProcessNoise))
	if got := len(chain.Stages()); got != 2 {
		t.Fatalf("stage count = %d, want 2", got)
	}
	if chain.Stages()[0].Name() != "median" || chain.Stages()[1].Name() != "kalman" {
		t.Errorf("unexpected stage order: %s, %s", chain.Stages()[0].Name(), chain.Stages()[1].Name())
	}

	points := makeTrack([][2]float64{
		{35.700, 51.400}, {35.701, 51.401}, {35.702, 51.402},
		{35.703, 51.403}, {35.704, 51.404},
	})
	out := chain.Run(points)
	if len(out) != len(points) {
		t.Errorf("chain changed batch size: %d -> %d", len(points), len(out))
	}
}
