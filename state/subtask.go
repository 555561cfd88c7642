package state

import (
	"context"
	"time"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

type SubtaskState struct {
	TaskID   string
	Subtasks []models.Subtask
}

func cloneSubtasks(s SubtaskState) SubtaskState {
	return SubtaskState{TaskID: s.TaskID, Subtasks: cloneSlice(s.Subtasks)}
}

type SubtaskSlice struct {
	*core[SubtaskState]
	api      *services.SubtaskService
	sessions Sessions
}

func NewSubtaskSlice(api *services.SubtaskService, sessions Sessions, bus *Bus, timeout time.Duration) *SubtaskSlice {
	s := &SubtaskSlice{
		core:     newCore("subtasks", timeout, func() SubtaskState { return SubtaskState{} }, cloneSubtasks),
		api:      api,
		sessions: sessions,
	}
	bus.Subscribe(TopicTasksRemoved, func(ev Event) {
		s.dropTasks(ev.(TasksRemoved).TaskIDs)
	})
	return s
}

func (s *SubtaskSlice) Fetch(ctx context.Context, projectID, taskID string) ([]models.Subtask, error) {
	return run(s.core, ctx, "fetch", "subtasks",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) ([]models.Subtask, error) {
			return s.api.GetSubtasks(ctx, sess, projectID, taskID)
		}),
		func(st *SubtaskState, subs []models.Subtask) bool {
			for i := range subs {
				if subs[i].TaskID == "" {
					subs[i].TaskID = taskID
				}
			}
			st.TaskID, st.Subtasks = taskID, subs
			return true
		})
}

func (s *SubtaskSlice) Create(ctx context.Context, projectID, taskID string, draft models.SubtaskDraft) (models.Subtask, error) {
	return run(s.core, ctx, "create", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Subtask, error) {
			return s.api.CreateSubtask(ctx, sess, projectID, taskID, draft)
		}),
		func(st *SubtaskState, sub models.Subtask) bool {
			if sub.TaskID == "" {
				sub.TaskID = taskID
			}
			st.Subtasks = append(st.Subtasks, sub)
			return true
		})
}

func (s *SubtaskSlice) Reset() { s.reset() }

func (s *SubtaskSlice) dropTasks(taskIDs []string) {
	gone := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		gone[id] = struct{}{}
	}
	s.mutate("tasksRemoved", func(st *SubtaskState) {
		kept := make([]models.Subtask, 0, len(st.Subtasks))
		for _, sub := range st.Subtasks {
			if _, ok := gone[sub.TaskID]; !ok {
				kept = append(kept, sub)
			}
		}
		st.Subtasks = kept
		if _, ok := gone[st.TaskID]; ok {
			st.TaskID = ""
		}
	})
}
