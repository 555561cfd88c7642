package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/session"
)

type SubtaskService struct {
	client *Client
}

func NewSubtaskService(client *Client) *SubtaskService {
	return &SubtaskService{client: client}
}

func (s *SubtaskService) GetSubtasks(ctx context.Context, sess session.Session, projectID, taskID string) ([]models.Subtask, error) {
	if err := requireID("projectId", projectID); err != nil {
		return nil, err
	}
	if err := requireID("taskId", taskID); err != nil {
		return nil, err
	}
	subtasks := []models.Subtask{}
	err := s.client.do(ctx, request{
		area: areaTasks, op: "fetchSubtasks",
		method: http.MethodGet, path: taskPath(projectID, taskID, "subtasks"),
		sess: &sess, fallback: "Failed to fetch subtasks",
	}, &subtasks)
	return subtasks, err
}

func (s *SubtaskService) CreateSubtask(ctx context.Context, sess session.Session, projectID, taskID string, draft models.SubtaskDraft) (models.Subtask, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return models.Subtask{}, invalid("title", "Subtask title is required")
	}
	if err := requireID("projectId", projectID); err != nil {
		return models.Subtask{}, err
	}
	if err := requireID("taskId", taskID); err != nil {
		return models.Subtask{}, err
	}
	if draft.Status == "" {
		draft.Status = models.StatusTodo
	}
	var subtask models.Subtask
	err := s.client.do(ctx, request{
		area: areaTasks, op: "createSubtask",
		method: http.MethodPost, path: taskPath(projectID, taskID, "subtasks", "create"),
		body: draft, sess: &sess, fallback: "Subtask creation failed",
	}, &subtask)
	return subtask, err
}
