package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/session"
)

type ProjectService struct {
	client *Client
}

func NewProjectService(client *Client) *ProjectService {
	return &ProjectService{client: client}
}

func projectPath(projectID string, rest ...string) string {
	parts := append([]string{"/api/projects", url.PathEscape(projectID)}, rest...)
	return strings.Join(parts, "/")
}

func (s *ProjectService) CreateProject(ctx context.Context, sess session.Session, draft models.ProjectDraft) (models.Project, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return models.Project{}, invalid("name", "Project name is required")
	}
	var project models.Project
	err := s.client.do(ctx, request{
		area: areaProjects, op: "createProject",
		method: http.MethodPost, path: "/api/projects/create",
		body: draft, sess: &sess, fallback: "Failed to create project",
	}, &project)
	return project, err
}

func (s *ProjectService) GetUserProjects(ctx context.Context, sess session.Session) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.client.do(ctx, request{
		area: areaProjects, op: "fetchUserProjects",
		method: http.MethodGet, path: "/api/projects/my-projects",
		sess: &sess, fallback: "Failed to fetch user projects",
	}, &projects)
	return projects, err
}

func (s *ProjectService) GetProjectDetails(ctx context.Context, sess session.Session, projectID string) (models.Project, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Project{}, err
	}
	var project models.Project
	err := s.client.do(ctx, request{
		area: areaProjects, op: "fetchProjectDetails",
		method: http.MethodGet, path: projectPath(projectID, "details"),
		sess: &sess, fallback: "Failed to fetch project details",
	}, &project)
	return project, err
}

func (s *ProjectService) UpdateProject(ctx context.Context, sess session.Session, projectID string, update models.ProjectUpdate) (models.Project, error) {
	if err := requireID("projectId", projectID); err != nil {
		return models.Project{}, err
	}
	if update.Name == "" && update.Description == nil {
		return models.Project{}, invalid("updates", "Nothing to update")
	}
	var project models.Project
	err := s.client.do(ctx, request{
		area: areaProjects, op: "updateProject",
		method: http.MethodPut, path: projectPath(projectID),
		body: update, sess: &sess, fallback: "Failed to update project",
	}, &project)
	return project, err
}

func (s *ProjectService) DeleteProject(ctx context.Context, sess session.Session, projectID string) error {
	if err := requireID("projectId", projectID); err != nil {
		return err
	}
	return s.client.do(ctx, request{
		area: areaProjects, op: "deleteProject",
		method: http.MethodDelete, path: projectPath(projectID),
		sess: &sess, fallback: "Failed to delete project",
	}, nil)
}

func (s *ProjectService) GetProjectMembers(ctx context.Context, sess session.Session, projectID string) ([]models.Member, error) {
	if err := requireID("projectId", projectID); err != nil {
		return nil, err
	}
	members := []models.Member{}
	err := s.client.do(ctx, request{
		area: areaProjects, op: "fetchProjectMembers",
		method: http.MethodGet, path: projectPath(projectID, "members"),
		sess: &sess, fallback: "Failed to fetch project members",
	}, &members)
	return members, err
}

func (s *ProjectService) RemoveProjectMember(ctx context.Context, sess session.Session, projectID, userID string) error {
	if err := requireID("projectId", projectID); err != nil {
		return err
	}
	if err := requireID("userId", userID); err != nil {
		return err
	}
	return s.client.do(ctx, request{
		area: areaProjects, op: "removeProjectMember",
		method: http.MethodDelete, path: projectPath(projectID, "member", url.PathEscape(userID)),
		sess: &sess, fallback: "Failed to remove project member",
	}, nil)
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(field, "%s is required", field)
	}
	return nil
}
