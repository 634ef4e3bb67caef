package repository

import (
	"fmt"
	"sync"

	"fieldtrack/internal/core/model"
)

type inMemoryBoundaryRepository struct {
	boundaries map[string]*model.BoundaryPolygon
	mutex      sync.RWMutex
}

func NewInMemoryBoundaryRepository() BoundaryRepository {
	return &inMemoryBoundaryRepository{
		boundaries: make(map[string]*model.BoundaryPolygon),
	}
}

func (r *inMemoryBoundaryRepository) Create(boundary *model.BoundaryPolygon) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.boundaries[boundary.ID]; exists {
		return fmt.Errorf("boundary with ID %s already exists", boundary.ID)
	}

	r.boundaries[boundary.ID] = boundary
	return nil
}

func (r *inMemoryBoundaryRepository) FindByID(id string) (*model.BoundaryPolygon, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if boundary, exists := r.boundaries[id]; exists {
		return boundary, nil
	}
	return nil, nil
}

func (r *inMemoryBoundaryRepository) FindByFarmID(farmID string) ([]*model.BoundaryPolygon, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.BoundaryPolygon
	for _, boundary := range r.boundaries {
		if boundary.FarmID == farmID {
			result = append(result, boundary)
		}
	}
	return result, nil
}
