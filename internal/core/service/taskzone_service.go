package service

import (
	"errors"
	"time"

	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/repository"
	"fieldtrack/internal/geo"
)

// DefaultPresenceRatio is the fraction of the scheduled window a vehicle
// must spend inside the task zone for the task to count as done.
const DefaultPresenceRatio = 0.7

type TaskZoneService interface {
	Apply(task *model.Task, points []model.GpsPoint) (*model.Task, error)
	Finalize(task *model.Task) (*model.Task, error)
}

type taskZoneService struct {
	taskRepo      repository.TaskRepository
	dispatcher    EventDispatcher
	presenceRatio float64
}

func NewTaskZoneService(taskRepo repository.TaskRepository, dispatcher EventDispatcher, presenceRatio float64) TaskZoneService {
	if presenceRatio <= 0 || presenceRatio > 1 {
		presenceRatio = DefaultPresenceRatio
	}
	return &taskZoneService{
		taskRepo:      taskRepo,
		dispatcher:    dispatcher,
		presenceRatio: presenceRatio,
	}
}

// Apply accumulates in-zone presence from the batch and moves a pending
// task to in_progress on first entry. Cancelled and completed tasks are
// left alone. The updated task is persisted and returned.
func (s *taskZoneService) Apply(task *model.Task, points []model.GpsPoint) (*model.Task, error) {
	if task == nil {
		return nil, errors.New("invalid task")
	}
	if task.Status == model.TaskCancelled || task.Status == model.TaskDone || task.Finalized {
		return task, nil
	}

	updated := *task
	changed := false
	var prev *model.GpsPoint

	for i := range points {
		p := &points[i]
		if p.Timestamp.Before(task.WindowStart) || p.Timestamp.After(task.WindowEnd) {
			prev = p
			continue
		}
		inside := geo.PointInPolygon(p.Latitude, p.Longitude, task.Zone.Vertices)
		if !inside {
			prev = p
			continue
		}

		if updated.Status == model.TaskNotStarted {
			updated.Status = model.TaskInProgress
			changed = true
			s.dispatcher.Dispatch(Event{
				Type:      EventTaskStatusChange,
				VehicleID: task.VehicleID,
				Subject:   task.ID,
				Detail:    model.TaskInProgress,
				Timestamp: p.Timestamp,
			})
		}

		if prev != nil && prev.Timestamp.Before(p.Timestamp) {
			from := prev.Timestamp
			if from.Before(task.WindowStart) {
				from = task.WindowStart
			}
			updated.InZoneSeconds += int64(p.Timestamp.Sub(from).Seconds())
			changed = true
		}
		prev = p
	}

	if !changed {
		return task, nil
	}
	if err := s.taskRepo.Update(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Finalize settles the task at window end: presence at or above the ratio
// threshold means done, below means not_done.
func (s *taskZoneService) Finalize(task *model.Task) (*model.Task, error) {
	if task == nil {
		return nil, errors.New("invalid task")
	}
	if task.Finalized || task.Status == model.TaskCancelled || task.Status == model.TaskDone {
		return task, nil
	}

	updated := *task
	if updated.PresenceRatio() >= s.presenceRatio {
		updated.Status = model.TaskDone
	} else {
		updated.Status = model.TaskNotDone
	}
	updated.Finalized = true

	if err := s.taskRepo.Update(&updated); err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(Event{
		Type:      EventTaskStatusChange,
		VehicleID: updated.VehicleID,
		Subject:   updated.ID,
		Detail:    updated.Status,
		Timestamp: time.Now(),
	})
	return &updated, nil
}
