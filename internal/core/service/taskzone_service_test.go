package service

import (
	"testing"
	"time"

	"fieldtrack/internal/core/model"
	"fieldtrack/internal/core/repository"
)

func zoneSquare() model.BoundaryPolygon {
	return model.BoundaryPolygon{
		ID:   "zone-1",
		Name: "plot A",
		Vertices: []model.LatLon{
			{Lat: 34.8800, Lon: 51.2000},
			{Lat: 34.8800, Lon: 51.4000},
			{Lat: 34.9000, Lon: 51.4000},
			{Lat: 34.9000, Lon: 51.2000},
		},
	}
}

func taskPoint(ts time.Time, lat, lon float64) model.GpsPoint {
	return model.GpsPoint{
		Latitude:  lat,
		Longitude: lon,
		Speed:     8,
		Status:    model.StatusOn,
		Timestamp: ts,
	}
}

func newTaskFixture(t *testing.T, repo repository.TaskRepository) *model.Task {
	t.Helper()
	task := &model.Task{
		ID:          "task-1",
		VehicleID:   "vehicle-7",
		Zone:        zoneSquare(),
		WindowStart: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Status:      model.TaskNotStarted,
	}
	if err := repo.Create(task); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	return task
}

func TestApplyTransitionsToInProgress(t *testing.T) {
	repo := repository.NewInMemoryTaskRepository()
	dispatcher := &capturingDispatcher{}
	svc := NewTaskZoneService(repo, dispatcher, DefaultPresenceRatio)
	task := newTaskFixture(t, repo)

	base := time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC)
	updated, err := svc.Apply(task, []model.GpsPoint{
		taskPoint(base, 34.8850, 51.2800),
		taskPoint(base.Add(5*time.Minute), 34.8860, 51.2810),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if updated.Status != model.TaskInProgress {
		t.Errorf("Status = %q, want in_progress", updated.Status)
	}
	if updated.InZoneSeconds != 300 {
		t.Errorf("InZoneSeconds = %d, want 300", updated.InZoneSeconds)
	}
	if n := len(dispatcher.ofType(EventTaskStatusChange)); n != 1 {
		t.Errorf("status change events = %d, want 1", n)
	}

	// Persisted through the repository.
	stored, _ := repo.FindByID("task-1")
	if stored.Status != model.TaskInProgress {
		t.Errorf("stored status = %q, want in_progress", stored.Status)
	}
}

func TestApplyIgnoresPointsOutsideWindowAndZone(t *testing.T) {
	repo := repository.NewInMemoryTaskRepository()
	svc := NewTaskZoneService(repo, &capturingDispatcher{}, DefaultPresenceRatio)
	task := newTaskFixture(t, repo)

	updated, err := svc.Apply(task, []model.GpsPoint{
		// Before the window.
		taskPoint(time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC), 34.8850, 51.2800),
		// In the window but outside the zone.
		taskPoint(time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC), 34.5000, 51.2800),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if updated.Status != model.TaskNotStarted {
		t.Errorf("Status = %q, want not_started", updated.Status)
	}
	if updated.InZoneSeconds != 0 {
		t.Errorf("InZoneSeconds = %d, want 0", updated.InZoneSeconds)
	}
}

func TestApplyLeavesSettledTasksAlone(t *testing.T) {
	repo := repository.NewInMemoryTaskRepository()
	svc := NewTaskZoneService(repo, &capturingDispatcher{}, DefaultPresenceRatio)

	for _, status := range []string{model.TaskCancelled, model.TaskDone} {
		task := &model.Task{
			ID:          "task-" + status,
			VehicleID:   "vehicle-7",
			Zone:        zoneSquare(),
			WindowStart: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			Status:      status,
		}
		if err := repo.Create(task); err != nil {
			t.Fatalf("Create task: %v", err)
		}

		updated, err := svc.Apply(task, []model.GpsPoint{
			taskPoint(time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC), 34.8850, 51.2800),
		})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if updated.Status != status || updated.InZoneSeconds != 0 {
			t.Errorf("settled task %s was touched: %+v", status, updated)
		}
	}
}

func TestFinalizeByPresenceRatio(t *testing.T) {
	tests := []struct {
		name          string
		inZoneSeconds int64
		want          string
	}{
		{name: "above threshold", inZoneSeconds: 3000, want: model.TaskDone},
		{name: "below threshold", inZoneSeconds: 600, want: model.TaskNotDone},
		{name: "exactly at threshold", inZoneSeconds: 2520, want: model.TaskDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewInMemoryTaskRepository()
			dispatcher := &capturingDispatcher{}
			svc := NewTaskZoneService(repo, dispatcher, DefaultPresenceRatio)

			task := newTaskFixture(t, repo) // one hour window
			task.Status = model.TaskInProgress
			task.InZoneSeconds = tt.inZoneSeconds

			finalized, err := svc.Finalize(task)
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if finalized.Status != tt.want {
				t.Errorf("Status = %q, want %q", finalized.Status, tt.want)
			}
			if !finalized.Finalized {
				t.Errorf("Finalized = false, want true")
			}
			if n := len(dispatcher.ofType(EventTaskStatusChange)); n != 1 {
				t.Errorf("status change events = %d, want 1", n)
			}
		})
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := repository.NewInMemoryTaskRepository()
	svc := NewTaskZoneService(repo, &capturingDispatcher{}, DefaultPresenceRatio)

	task := newTaskFixture(t, repo)
	task.Status = model.TaskInProgress
	task.InZoneSeconds = 3000

	first, err := svc.Finalize(task)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	second, err := svc.Finalize(first)
	if err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}
	if second.Status != first.Status {
		t.Errorf("second finalize changed status to %q", second.Status)
	}
}
