package filter

import (
	"math"

	"fieldtrack/internal/core/model"
)

// Kalman stage defaults.
const (
	DefaultProcessNoise = 3.0 // implied meters/second
	// Fixed measurement accuracy in meters; the trackers report no
	// per-point accuracy estimate.
	measurementAccuracy = 10.0
	minAccuracy         = 1.0
)

// KalmanStage smooths latitude and longitude with a single-variance Kalman
// filter. Filter state lives only for one Apply call, so no stale state
// pollutes unrelated trajectories.
type KalmanStage struct {
	processNoise float64
}

// NewKalmanStage builds a Kalman stage with the given process noise in
// implied meters/second. Non-positive values fall back to the default.
func NewKalmanStage(processNoise float64) *KalmanStage {
	if processNoise <= 0 {
		processNoise = DefaultProcessNoise
	}
	return &KalmanStage{processNoise: processNoise}
}

func (s *KalmanStage) Name() string { return "kalman" }

func (s *KalmanStage) Apply(points []model.GpsPoint) []model.GpsPoint {
	if len(points) == 0 {
		return points
	}

	out := make([]model.GpsPoint, len(points))
	copy(out, points)

	f := newKalmanState(s.processNoise)
	for i := range out {
		lat, lon := out[i].Latitude, out[i].Longitude
		// Non-finite coordinates pass through unfiltered.
		if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
			continue
		}
		out[i].Latitude, out[i].Longitude = f.process(lat, lon, out[i].Timestamp.UnixMilli())
	}
	return out
}

// kalmanState is the per-batch filter state: one position estimate and one
// shared variance for both axes. The gain is dimensionless, so mixing
// degree-valued estimates with meter-valued variances is sound.
type kalmanState struct {
	q           float64 // process noise, m/s
	lat, lon    float64
	variance    float64 // estimate uncertainty, m^2
	timestampMs int64
	initialized bool
}

func newKalmanState(processNoise float64) *kalmanState {
	return &kalmanState{q: processNoise, variance: -1}
}

func (f *kalmanState) process(lat, lon float64, timestampMs int64) (float64, float64) {
	accuracy := measurementAccuracy
	if accuracy < minAccuracy {
		accuracy = minAccuracy
	}

	if !f.initialized || f.variance < 0 {
		f.lat = lat
		f.lon = lon
		f.variance = accuracy * accuracy
		f.timestampMs = timestampMs
		f.initialized = true
		return f.lat, f.lon
	}

	// Uncertainty grows with elapsed time since the previous sample.
	if dt := timestampMs - f.timestampMs; dt > 0 {
		f.variance += float64(dt) / 1000 * f.q * f.q
		f.timestampMs = timestampMs
	}

	k := f.variance / (f.variance + accuracy*accuracy)
	f.lat += k * (lat - f.lat)
	f.lon += k * (lon - f.lon)
	f.variance = (1 - k) * f.variance
	return f.lat, f.lon
}
