package service

import (
	"context"
	"fmt"
	"log"

	"fieldtrack/internal/cache"
	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/repository"
	"fieldtrack/internal/geo"
)

type GeofenceService interface {
	// Evaluate runs the farm boundaries of the vehicle's device against the
	// batch and emits enter/exit events on membership changes.
	Evaluate(ctx context.Context, device *model.Device, points []model.GpsPoint)
	// Contains is the stateless point-in-boundary query.
	Contains(point model.GpsPoint, boundary *model.BoundaryPolygon) bool
}

type geofenceService struct {
	boundaryRepo repository.BoundaryRepository
	store        cache.Store
	dispatcher   EventDispatcher
}

func NewGeofenceService(boundaryRepo repository.BoundaryRepository, store cache.Store, dispatcher EventDispatcher) GeofenceService {
	return &geofenceService{
		boundaryRepo: boundaryRepo,
		store:        store,
		dispatcher:   dispatcher,
	}
}

func (s *geofenceService) Contains(point model.GpsPoint, boundary *model.BoundaryPolygon) bool {
	return geo.PointInPolygon(point.Latitude, point.Longitude, boundary.Vertices)
}

func membershipKey(vehicleID, boundaryID string) string {
	return fmt.Sprintf("geofence:%s:%s", vehicleID, boundaryID)
}

// Evaluate is best effort: lookup or store failures are logged and the batch
// continues, a missed transition surfaces again on the next batch.
func (s *geofenceService) Evaluate(ctx context.Context, device *model.Device, points []model.GpsPoint) {
	if device.FarmID == "" || len(points) == 0 {
		return
	}

	boundaries, err := s.boundaryRepo.FindByFarmID(device.FarmID)
	if err != nil {
		log.Printf("Geofence lookup failed for farm %s: %v", device.FarmID, err)
		return
	}

	for _, boundary := range boundaries {
		inside := s.lastMembership(ctx, device.VehicleID, boundary.ID)
		for _, p := range points {
			now := s.Contains(p, boundary)
			if now == inside {
				continue
			}
			eventType := EventBoundaryExit
			if now {
				eventType = EventBoundaryEnter
			}
			s.dispatcher.Dispatch(Event{
				Type:      eventType,
				VehicleID: device.VehicleID,
				Subject:   boundary.ID,
				Detail:    boundary.Name,
				Timestamp: p.Timestamp,
			})
			inside = now
		}
		s.saveMembership(ctx, device.VehicleID, boundary.ID, inside)
	}
}

func (s *geofenceService) lastMembership(ctx context.Context, vehicleID, boundaryID string) bool {
	if s.store == nil {
		return false
	}
	var inside bool
	if err := s.store.Get(ctx, membershipKey(vehicleID, boundaryID), &inside); err != nil {
		if err != cache.ErrMiss {
			log.Printf("Geofence membership read failed: %v", err)
		}
		return false
	}
	return inside
}

func (s *geofenceService) saveMembership(ctx context.Context, vehicleID, boundaryID string, inside bool) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, membershipKey(vehicleID, boundaryID), inside, 0); err != nil {
		log.Printf("Geofence membership write failed: %v", err)
	}
}
