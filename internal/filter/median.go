package filter

import (
	"sort"

	"fieldtrack/internal/core/model"
)

// DefaultMedianWindow is the production sliding-window size.
const DefaultMedianWindow = 5

// MedianStage replaces each point's latitude and longitude with the median
// of a sliding window around it. Latitude and longitude medians are computed
// independently, which can desynchronize a point from any single real
// sample; accepted tradeoff for outlier rejection.
type MedianStage struct {
	window int
}

// NewMedianStage builds a median stage with the given odd window size.
// Sizes below 3 are raised to 3 and even sizes are coerced to the next odd.
func NewMedianStage(window int) *MedianStage {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	return &MedianStage{window: window}
}

func (s *MedianStage) Name() string { return "median" }

// Window returns the effective window size.
func (s *MedianStage) Window() int { return s.window }

func (s *MedianStage) Apply(points []model.GpsPoint) []model.GpsPoint {
	n := len(points)
	if n < s.window {
		return points
	}

	half := s.window / 2
	out := make([]model.GpsPoint, n)
	copy(out, points)

	lats := make([]float64, 0, s.window)
	lons := make([]float64, 0, s.window)
	for i := 0; i < n; i++ {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > n-1 {
			end = n - 1
		}

		lats = lats[:0]
		lons = lons[:0]
		for j := start; j <= end; j++ {
			lats = append(lats, points[j].Latitude)
			lons = append(lons, points[j].Longitude)
		}
		out[i].Latitude = medianSample(lats)
		out[i].Longitude = medianSample(lons)
	}
	return out
}

// medianSample returns the middle element of the sorted values. Always an
// existing sample, never an interpolation, so edge windows with an even
// element count still yield a real coordinate.
func medianSample(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}
