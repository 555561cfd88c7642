package state

import (
	"context"
	"sync"
	"time"

	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

type TaskState struct {
	// ProjectID is the project the last fetch loaded.
	ProjectID string
	Tasks     []models.Task
	Selected  *models.Task
}

func cloneTasks(s TaskState) TaskState {
	return TaskState{ProjectID: s.ProjectID, Tasks: cloneSlice(s.Tasks), Selected: clonePtr(s.Selected)}
}

type TaskSlice struct {
	*core[TaskState]
	api      *services.TaskService
	sessions Sessions
	bus      *Bus

	seqMu sync.Mutex
	seq   map[string]uint64
	// applied is only touched from apply callbacks, which run under the core lock.
	applied map[string]uint64
}

func NewTaskSlice(api *services.TaskService, sessions Sessions, bus *Bus, timeout time.Duration) *TaskSlice {
	s := &TaskSlice{
		core:     newCore("tasks", timeout, func() TaskState { return TaskState{} }, cloneTasks),
		api:      api,
		sessions: sessions,
		bus:      bus,
		seq:      make(map[string]uint64),
		applied:  make(map[string]uint64),
	}
	bus.Subscribe(TopicProjectDeleted, func(ev Event) {
		s.dropProject(ev.(ProjectDeleted).ProjectID)
	})
	return s
}

func (s *TaskSlice) Create(ctx context.Context, projectID string, draft models.TaskDraft) (models.Task, error) {
	return run(s.core, ctx, "create", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Task, error) {
			return s.api.CreateTask(ctx, sess, projectID, draft)
		}),
		func(st *TaskState, t models.Task) bool {
			if t.ProjectID == "" {
				t.ProjectID = projectID
			}
			st.Tasks = append(st.Tasks, t)
			return true
		})
}

func (s *TaskSlice) Fetch(ctx context.Context, projectID string) ([]models.Task, error) {
	return run(s.core, ctx, "fetch", "tasks",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) ([]models.Task, error) {
			return s.api.GetTasksByProjectID(ctx, sess, projectID)
		}),
		func(st *TaskState, ts []models.Task) bool {
			for i := range ts {
				if ts[i].ProjectID == "" {
					ts[i].ProjectID = projectID
				}
			}
			st.ProjectID, st.Tasks = projectID, ts
			return true
		})
}

func (s *TaskSlice) FetchDetails(ctx context.Context, projectID, taskID string) (models.Task, error) {
	return run(s.core, ctx, "fetchDetails", "task-details",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Task, error) {
			return s.api.GetTaskByID(ctx, sess, projectID, taskID)
		}),
		func(st *TaskState, t models.Task) bool {
			st.Selected = &t
			return true
		})
}

func (s *TaskSlice) Update(ctx context.Context, projectID, taskID string, update models.TaskUpdate) (models.Task, error) {
	return run(s.core, ctx, "update", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Task, error) {
			return s.api.UpdateTask(ctx, sess, projectID, taskID, update)
		}),
		func(st *TaskState, t models.Task) bool {
			if t.ID == "" {
				t.ID = taskID
			}
			for i := range st.Tasks {
				if st.Tasks[i].ID == t.ID {
					st.Tasks[i] = t
				}
			}
			if st.Selected != nil && st.Selected.ID == t.ID {
				st.Selected = &t
			}
			return true
		})
}

// UpdateStatus moves a task to status. On success the task is taken out of
// its position and the server's copy is appended at the end of the slice.
// A response older than the last one applied for the same task is dropped
// and reported as ErrSuperseded.
func (s *TaskSlice) UpdateStatus(ctx context.Context, projectID, taskID string, status models.TaskStatus) (models.Task, error) {
	s.seqMu.Lock()
	s.seq[taskID]++
	seq := s.seq[taskID]
	s.seqMu.Unlock()

	return run(s.core, ctx, "updateStatus", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Task, error) {
			return s.api.ChangeTaskStatus(ctx, sess, projectID, taskID, status)
		}),
		func(st *TaskState, t models.Task) bool {
			if seq < s.applied[taskID] {
				logging.Logger.Infof("Event ID: STALE_STATUS_RESPONSE, Description: Dropped status response #%d for task %s", seq, taskID)
				return false
			}
			s.applied[taskID] = seq
			if t.ID == "" {
				t.ID = taskID
			}
			if t.ProjectID == "" {
				t.ProjectID = projectID
			}
			kept := make([]models.Task, 0, len(st.Tasks)+1)
			for _, cur := range st.Tasks {
				if cur.ID != taskID {
					kept = append(kept, cur)
				}
			}
			st.Tasks = append(kept, t)
			if st.Selected != nil && st.Selected.ID == taskID {
				st.Selected = &t
			}
			return true
		})
}

func (s *TaskSlice) Reset() { s.reset() }

func (s *TaskSlice) dropProject(projectID string) {
	var removed []string
	s.mutate("projectDeleted", func(st *TaskState) {
		kept := make([]models.Task, 0, len(st.Tasks))
		for _, t := range st.Tasks {
			if t.ProjectID == projectID || (t.ProjectID == "" && st.ProjectID == projectID) {
				removed = append(removed, t.ID)
				continue
			}
			kept = append(kept, t)
		}
		st.Tasks = kept
		if st.Selected != nil && st.Selected.ProjectID == projectID {
			st.Selected = nil
		}
		if st.ProjectID == projectID {
			st.ProjectID = ""
		}
	})
	if len(removed) > 0 {
		s.bus.Publish(TasksRemoved{TaskIDs: removed})
	}
}
