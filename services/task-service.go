package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/session"
)

type TaskService struct {
	client *Client
}

func NewTaskService(client *Client) *TaskService {
	return &TaskService{client: client}
}

func taskPath(projectID, taskID string, rest ...string) string {
	return projectPath(projectID, append([]string{"tasks", url.PathEscape(taskID)}, rest...)...)
}

func (s *TaskService) CreateTask(ctx context.Context, sess session.Session, projectID string, draft models.TaskDraft) (models.Task, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Task{}, err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return models.Task{}, invalid("title", "Task title is required")
	}
	if draft.Status == "" {
		draft.Status = models.StatusTodo
	}
	if !draft.Status.Valid() {
		return models.Task{}, invalid("status", "Invalid task status %q", draft.Status)
	}
	var task models.Task
	err := s.client.do(ctx, request{
		area: areaTasks, op: "createTask",
		method: http.MethodPost, path: projectPath(projectID, "tasks", "create"),
		body: draft, sess: &sess, fallback: "Failed to create task",
	}, &task)
	return task, err
}

func (s *TaskService) GetTasksByProjectID(ctx context.Context, sess session.Session, projectID string) ([]models.Task, error) {
	if err := requireID("projectId", projectID); err != nil {
		return nil, err
	}
	tasks := []models.Task{}
	err := s.client.do(ctx, request{
		area: areaTasks, op: "fetchTasks",
		method: http.MethodGet, path: projectPath(projectID, "tasks"),
		sess: &sess, fallback: "Failed to fetch tasks",
	}, &tasks)
	return tasks, err
}

func (s *TaskService) GetTaskByID(ctx context.Context, sess session.Session, projectID, taskID string) (models.Task, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Task{}, err
	}
	if err := requireID("taskId", taskID); err != nil {
		return models.Task{}, err
	}
	var task models.Task
	err := s.client.do(ctx, request{
		area: areaTasks, op: "fetchTaskDetails",
		method: http.MethodGet, path: taskPath(projectID, taskID),
		sess: &sess, fallback: "Failed to fetch task details",
	}, &task)
	return task, err
}

func (s *TaskService) UpdateTask(ctx context.Context, sess session.Session, projectID, taskID string, update models.TaskUpdate) (models.Task, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Task{}, err
	}
	if err := requireID("taskId", taskID); err != nil {
		return models.Task{}, err
	}
	if update.Status != "" && !update.Status.Valid() {
		return models.Task{}, invalid("status", "Invalid task status %q", update.Status)
	}
	var task models.Task
	err := s.client.do(ctx, request{
		area: areaTasks, op: "updateTask",
		method: http.MethodPut, path: taskPath(projectID, taskID),
		body: update, sess: &sess, fallback: "Failed to update task",
	}, &task)
	return task, err
}

// ChangeTaskStatus is the authoritative status move behind the board.
func (s *TaskService) ChangeTaskStatus(ctx context.Context, sess session.Session, projectID, taskID string, status models.TaskStatus) (models.Task, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Task{}, err
	}
	if err := requireID("taskId", taskID); err != nil {
		return models.Task{}, err
	}
	if !status.Valid() {
		return models.Task{}, invalid("status", "Invalid task status %q", status)
	}
	var task models.Task
	err := s.client.do(ctx, request{
		area: areaTasks, op: "updateTaskStatus",
		method: http.MethodPut, path: taskPath(projectID, taskID, "status"),
		body: map[string]models.TaskStatus{"status": status}, sess: &sess,
		fallback: "Failed to update task status",
	}, &task)
	return task, err
}
