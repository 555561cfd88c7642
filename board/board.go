// Package board partitions a project's tasks into the four status lanes and
// moves tasks between them.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/state"
)

// Unknown collects tasks whose status is none of the four lanes.
const Unknown models.TaskStatus = "unknown"

// Lanes maps each status to its tasks in slice order. The four lanes are
// always present; Unknown only when such tasks exist.
type Lanes map[models.TaskStatus][]models.Task

// Count returns the number of tasks in lane.
func (l Lanes) Count(status models.TaskStatus) int { return len(l[status]) }

// Find returns the lane that holds taskID.
func (l Lanes) Find(taskID string) (models.TaskStatus, bool) {
	for status, tasks := range l {
		for _, t := range tasks {
			if t.ID == taskID {
				return status, true
			}
		}
	}
	return "", false
}

// Board is a view over the task slice for one project. It holds no task
// state of its own: lanes are derived from the slice on every call.
type Board struct {
	ProjectID string
	tasks     *state.TaskSlice

	mu       sync.Mutex
	queues   map[string]chan struct{}
	reported map[string]struct{}
}

func New(projectID string, tasks *state.TaskSlice) *Board {
	return &Board{
		ProjectID: projectID,
		tasks:     tasks,
		queues:    make(map[string]chan struct{}),
		reported:  make(map[string]struct{}),
	}
}

func (b *Board) Lanes() Lanes {
	lanes := make(Lanes, len(models.Statuses)+1)
	for _, status := range models.Statuses {
		lanes[status] = []models.Task{}
	}
	snap := b.tasks.Snapshot().State
	for _, t := range snap.Tasks {
		if t.ProjectID != "" && t.ProjectID != b.ProjectID {
			continue
		}
		if !t.Status.Valid() {
			b.reportUnknown(t)
			lanes[Unknown] = append(lanes[Unknown], t)
			continue
		}
		lanes[t.Status] = append(lanes[t.Status], t)
	}
	return lanes
}

func (b *Board) reportUnknown(t models.Task) {
	b.mu.Lock()
	_, seen := b.reported[t.ID]
	b.reported[t.ID] = struct{}{}
	b.mu.Unlock()
	if !seen {
		logging.Logger.Warnf("Event ID: UNKNOWN_TASK_STATUS, Description: Task %s has unknown status %q", t.ID, t.Status)
	}
}

// Refresh reloads the project's tasks into the slice.
func (b *Board) Refresh(ctx context.Context) error {
	_, err := b.tasks.Fetch(ctx, b.ProjectID)
	return err
}

// Move sends the status change for taskID. Moves of the same task run one at
// a time in call order; moves of different tasks run concurrently. On
// failure the lanes are left as they were.
func (b *Board) Move(ctx context.Context, taskID string, target models.TaskStatus) (models.Task, error) {
	if !target.Valid() {
		return models.Task{}, &services.ValidationError{Field: "status", Message: fmt.Sprintf("Invalid task status %q", target)}
	}

	release, err := b.acquire(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	task, err := b.tasks.UpdateStatus(ctx, b.ProjectID, taskID, target)
	if err != nil {
		logging.Logger.Warnf("Event ID: MOVE_TASK_FAILED, Description: Moving task %s to %s failed: %v", taskID, target, err)
		return models.Task{}, err
	}
	logging.Logger.Infof("Event ID: TASK_MOVED, Description: Task %s moved to %s", taskID, task.Status)
	return task, nil
}

// acquire waits for the previous move of taskID to finish. Each caller
// swaps in its own channel as the queue tail, which gives FIFO order.
func (b *Board) acquire(ctx context.Context, taskID string) (func(), error) {
	done := make(chan struct{})
	b.mu.Lock()
	prev := b.queues[taskID]
	b.queues[taskID] = done
	b.mu.Unlock()

	release := func() {
		b.mu.Lock()
		if b.queues[taskID] == done {
			delete(b.queues, taskID)
		}
		b.mu.Unlock()
		close(done)
	}

	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		// keep the chain intact for whoever queued behind us
		go func() {
			<-prev
			release()
		}()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.ErrRequestTimeout
		}
		return nil, ctx.Err()
	}
}
