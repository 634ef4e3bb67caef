package repository

import (
	"fmt"
	"sync"
	"time"

	"fieldtrack/internal/core/model"
)

type inMemoryTaskRepository struct {
	tasks map[string]*model.Task
	mutex sync.RWMutex
}

func NewInMemoryTaskRepository() TaskRepository {
	return &inMemoryTaskRepository{
		tasks: make(map[string]*model.Task),
	}
}

func (r *inMemoryTaskRepository) Create(task *model.Task) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	r.tasks[task.ID] = task
	return nil
}

func (r *inMemoryTaskRepository) Update(task *model.Task) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tasks[task.ID]; !exists {
		return fmt.Errorf("task with ID %s not found", task.ID)
	}

	r.tasks[task.ID] = task
	return nil
}

func (r *inMemoryTaskRepository) FindByID(id string) (*model.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if task, exists := r.tasks[id]; exists {
		return task, nil
	}
	return nil, nil
}

func (r *inMemoryTaskRepository) FindActiveByVehicle(vehicleID string, at time.Time) ([]*model.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Task
	for _, task := range r.tasks {
		if task.VehicleID != vehicleID || task.Finalized {
			continue
		}
		if at.Before(task.WindowStart) || at.After(task.WindowEnd) {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}
