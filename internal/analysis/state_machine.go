package analysis

import (
	"time"

	"fieldtrack/internal/core/model"
	"fieldtrack/internal/geo"
)

// Thresholds are the tunable classification parameters of the analysis
// engine. MovingSpeed separates moving from stopped; RealWorkSpeed is the
// stricter bound the work-time detector uses for actual field work.
// ConfirmationCount is the number of consecutive moving samples required
// before the first-movement landmark commits, filtering out GPS jitter.
type Thresholds struct {
	MovingSpeed       float64 // km/h
	RealWorkSpeed     float64 // km/h
	ConfirmationCount int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MovingSpeed:       2.0,
		RealWorkSpeed:     5.0,
		ConfirmationCount: 3,
	}
}

// Advance runs the incremental analysis over a batch of new points and
// returns the updated state. The input state is not modified; persistence
// is the caller's job. Points at or before the state's cursor are skipped
// individually, so replays and out-of-order batches can never rewind the
// state. Points must be in device-reported order within the batch.
func Advance(state *model.AnalysisState, points []model.GpsPoint, window model.WorkWindow, loc *time.Location, th Thresholds) (*model.AnalysisState, error) {
	s := cloneState(state)
	if len(points) == 0 {
		return s, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	windowStart, windowEnd, err := resolveWindow(window, s.Date, loc)
	if err != nil {
		return nil, err
	}

	for _, p := range points {
		if !p.Timestamp.After(s.LastProcessedTimestamp) {
			continue
		}
		processPoint(s, p, windowStart, windowEnd, th)
	}
	return s, nil
}

// CloseOpenSegment finalizes the segment in progress at the given instant,
// typically end of day. It mirrors a classification transition without
// opening a successor.
func CloseOpenSegment(state *model.AnalysisState, at time.Time) *model.AnalysisState {
	s := cloneState(state)
	if !s.Started() {
		return s
	}
	if at.Before(s.LastProcessedTimestamp) {
		at = s.LastProcessedTimestamp
	}
	closeSegment(s, at)
	s.IsMoving = false
	s.IsStopped = false
	return s
}

// resolveWindow anchors the work window on the state's day. A vehicle
// without a configured window is treated as working the whole day.
func resolveWindow(window model.WorkWindow, date string, loc *time.Location) (time.Time, time.Time, error) {
	if window.Start == "" || window.End == "" {
		start, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, start.AddDate(0, 0, 1), nil
	}
	return window.Resolve(date, loc)
}

func cloneState(state *model.AnalysisState) *model.AnalysisState {
	s := *state
	if len(state.Segments) > 0 {
		s.Segments = make([]model.Segment, len(state.Segments))
		copy(s.Segments, state.Segments)
	}
	return &s
}

func processPoint(s *model.AnalysisState, p model.GpsPoint, windowStart, windowEnd time.Time, th Thresholds) {
	moving := p.PowerOn() && p.Speed > th.MovingSpeed

	if !s.Started() {
		s.FirstPointTimestamp = p.Timestamp
		openSegment(s, p, moving)
	} else {
		// Attribute the elapsed interval to the classification that was in
		// effect until this point arrived.
		dt := int64(p.Timestamp.Sub(s.LastProcessedTimestamp).Seconds())
		wasMoving := s.IsMoving
		if wasMoving {
			s.MovementDuration += dt
			d := geo.Haversine(s.LastLatitude, s.LastLongitude, p.Latitude, p.Longitude)
			s.MovementDistance += d
			s.SegmentDistance += d
		} else {
			s.StoppageDuration += dt
			if s.LastStatus == model.StatusOn {
				s.StoppageDurationOn += dt
			} else {
				s.StoppageDurationOff += dt
			}
		}

		if moving != wasMoving {
			closeSegment(s, p.Timestamp)
			openSegment(s, p, moving)
		}
	}

	// Landmarks. Device-on commits on the first powered-on point inside the
	// work window; first-movement waits for the confirmation run.
	if p.PowerOn() && !p.Timestamp.Before(windowStart) && p.Timestamp.Before(windowEnd) {
		s.DeviceOnTime.Commit(p.Timestamp)
	}
	if moving {
		s.ConsecutiveMoving++
		if s.ConsecutiveMoving == 1 {
			s.MovementCandidateTime = p.Timestamp
		}
		if s.ConsecutiveMoving >= th.ConfirmationCount {
			s.FirstMovementTime.Commit(s.MovementCandidateTime)
		}
	} else {
		s.ConsecutiveMoving = 0
		s.MovementCandidateTime = time.Time{}
	}

	if p.Speed > s.MaxSpeed {
		s.MaxSpeed = p.Speed
	}

	s.LastProcessedTimestamp = p.Timestamp
	s.LastProcessedIndex++
	s.LastLatitude = p.Latitude
	s.LastLongitude = p.Longitude
	s.LastLatitudeRad = geo.Radians(p.Latitude)
	s.LastLongitudeRad = geo.Radians(p.Longitude)
	s.LastSpeed = p.Speed
	s.LastStatus = p.Status
}

func openSegment(s *model.AnalysisState, p model.GpsPoint, moving bool) {
	s.IsMoving = moving
	s.IsStopped = !moving
	s.SegmentStartIndex = s.LastProcessedIndex
	s.SegmentStartTimestamp = p.Timestamp
	s.SegmentStartLatitude = p.Latitude
	s.SegmentStartLongitude = p.Longitude
	s.SegmentDistance = 0
}

func closeSegment(s *model.AnalysisState, end time.Time) {
	kind := model.SegmentStoppage
	if s.IsMoving {
		kind = model.SegmentMovement
	}
	seg := model.Segment{
		Kind:           kind,
		DetailIndex:    len(s.Segments),
		StartIndex:     s.SegmentStartIndex,
		StartTimestamp: s.SegmentStartTimestamp,
		EndTimestamp:   end,
		Duration:       int64(end.Sub(s.SegmentStartTimestamp).Seconds()),
	}
	if s.IsMoving {
		seg.Distance = s.SegmentDistance
	} else {
		s.StoppageCount++
	}
	s.Segments = append(s.Segments, seg)
}
