package state

import (
	"context"
	"time"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

type ProjectState struct {
	Projects []models.Project
	Selected *models.Project
	// Members lists the members of MembersOf.
	Members   []models.Member
	MembersOf string
}

func cloneProjects(s ProjectState) ProjectState {
	out := ProjectState{
		Projects:  make([]models.Project, len(s.Projects)),
		Selected:  clonePtr(s.Selected),
		Members:   cloneSlice(s.Members),
		MembersOf: s.MembersOf,
	}
	for i, p := range s.Projects {
		p.Members = cloneSlice(p.Members)
		out.Projects[i] = p
	}
	if out.Selected != nil {
		out.Selected.Members = cloneSlice(out.Selected.Members)
	}
	return out
}

type ProjectSlice struct {
	*core[ProjectState]
	api      *services.ProjectService
	sessions Sessions
	bus      *Bus
}

func NewProjectSlice(api *services.ProjectService, sessions Sessions, bus *Bus, timeout time.Duration) *ProjectSlice {
	return &ProjectSlice{
		core:     newCore("projects", timeout, func() ProjectState { return ProjectState{} }, cloneProjects),
		api:      api,
		sessions: sessions,
		bus:      bus,
	}
}

func (s *ProjectSlice) Create(ctx context.Context, draft models.ProjectDraft) (models.Project, error) {
	return run(s.core, ctx, "create", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Project, error) {
			return s.api.CreateProject(ctx, sess, draft)
		}),
		func(st *ProjectState, p models.Project) bool {
			st.Projects = append(st.Projects, p)
			return true
		})
}

func (s *ProjectSlice) FetchUserProjects(ctx context.Context) ([]models.Project, error) {
	return run(s.core, ctx, "fetchUserProjects", "projects",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) ([]models.Project, error) {
			return s.api.GetUserProjects(ctx, sess)
		}),
		func(st *ProjectState, ps []models.Project) bool {
			st.Projects = ps
			return true
		})
}

func (s *ProjectSlice) FetchDetails(ctx context.Context, projectID string) (models.Project, error) {
	return run(s.core, ctx, "fetchDetails", "project-details",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Project, error) {
			return s.api.GetProjectDetails(ctx, sess, projectID)
		}),
		func(st *ProjectState, p models.Project) bool {
			st.Selected = &p
			return true
		})
}

func (s *ProjectSlice) Update(ctx context.Context, projectID string, update models.ProjectUpdate) (models.Project, error) {
	return run(s.core, ctx, "update", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Project, error) {
			return s.api.UpdateProject(ctx, sess, projectID, update)
		}),
		func(st *ProjectState, p models.Project) bool {
			if p.ID == "" {
				p.ID = projectID
			}
			for i := range st.Projects {
				if st.Projects[i].ID == p.ID {
					st.Projects[i] = p
				}
			}
			if st.Selected != nil && st.Selected.ID == p.ID {
				st.Selected = &p
			}
			return true
		})
}

// Delete removes the project and, once the server confirms, publishes
// ProjectDeleted so task and subtask slices drop what belonged to it.
func (s *ProjectSlice) Delete(ctx context.Context, projectID string) error {
	_, err := run(s.core, ctx, "delete", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (struct{}, error) {
			return struct{}{}, s.api.DeleteProject(ctx, sess, projectID)
		}),
		func(st *ProjectState, _ struct{}) bool {
			st.Projects = filterProjects(st.Projects, projectID)
			if st.Selected != nil && st.Selected.ID == projectID {
				st.Selected = nil
			}
			if st.MembersOf == projectID {
				st.Members, st.MembersOf = nil, ""
			}
			return true
		})
	if err == nil {
		s.bus.Publish(ProjectDeleted{ProjectID: projectID})
	}
	return err
}

func (s *ProjectSlice) FetchMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	return run(s.core, ctx, "fetchMembers", "members",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) ([]models.Member, error) {
			return s.api.GetProjectMembers(ctx, sess, projectID)
		}),
		func(st *ProjectState, ms []models.Member) bool {
			st.Members, st.MembersOf = ms, projectID
			return true
		})
}

// RemoveMember only touches the members listing; the project list and the
// task slice are left as they are.
func (s *ProjectSlice) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := run(s.core, ctx, "removeMember", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (struct{}, error) {
			return struct{}{}, s.api.RemoveProjectMember(ctx, sess, projectID, userID)
		}),
		func(st *ProjectState, _ struct{}) bool {
			if st.MembersOf == projectID {
				kept := st.Members[:0:0]
				for _, m := range st.Members {
					if m.ID != userID {
						kept = append(kept, m)
					}
				}
				st.Members = kept
			}
			return true
		})
	if err == nil {
		s.bus.Publish(MemberRemoved{ProjectID: projectID, UserID: userID})
	}
	return err
}

func (s *ProjectSlice) Reset() { s.reset() }

func filterProjects(in []models.Project, id string) []models.Project {
	out := make([]models.Project, 0, len(in))
	for _, p := range in {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
