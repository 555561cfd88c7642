package apitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/Farhad7860/TaskFlow/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser registers an account directly and returns it.
func (s *Server) SeedUser(name, email, password string) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := models.User{ID: newID(), Name: name, Email: email}
	s.mu.Lock()
	s.accounts[strings.ToLower(email)] = &account{user: u, password: hash}
	s.mu.Unlock()
	return u
}

// Token signs a token for userID valid for ttl.
func (s *Server) Token(userID string, ttl time.Duration) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, _ := tok.SignedString(s.secret)
	return signed
}

// SeedProject creates a project led by leader.
func (s *Server) SeedProject(leader models.User, name string) models.Project {
	p := &models.Project{ID: newID(), Name: name, LeaderID: models.Ref(leader.ID), Members: []models.Ref{models.Ref(leader.ID)}}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
	s.members[p.ID] = []models.Member{leader}
	return *p
}

func (s *Server) AddMember(projectID string, m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[projectID] = append(s.members[projectID], m)
	if p := s.findProject(projectID); p != nil {
		p.Members = append(p.Members, models.Ref(m.ID))
	}
}

func (s *Server) SeedTask(projectID, title string, status models.TaskStatus) models.Task {
	t := &models.Task{ID: newID(), ProjectID: projectID, Title: title, Status: status}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	return *t
}

// TaskStatus reads the stored status of a task.
func (s *Server) TaskStatus(taskID string) models.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findTask(taskID); t != nil {
		return t.Status
	}
	return ""
}

func (s *Server) findProject(id string) *models.Project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) findTask(id string) *models.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := decode(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid registration data")
		return
	}
	key := strings.ToLower(req.Email)
	s.mu.Lock()
	_, exists := s.accounts[key]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	u := s.SeedUser(req.Name, req.Email, req.Password)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	s.mu.Lock()
	acc := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.password, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResult{Token: s.Token(acc.user.ID, s.TokenTTL), User: acc.user})
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectDraft
	if err := decode(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	caller := callerID(r)
	p := &models.Project{ID: newID(), Name: req.Name, Description: req.Description, LeaderID: models.Ref(caller), Members: []models.Ref{models.Ref(caller)}}
	s.mu.Lock()
	s.projects = append(s.projects, p)
	s.members[p.ID] = []models.Member{{ID: caller}}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) myProjects(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	s.mu.Lock()
	out := []models.Project{}
	for _, p := range s.projects {
		if string(p.LeaderID) == caller || p.HasMember(caller) {
			out = append(out, *p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) projectDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.findProject(mux.Vars(r)["id"])
	var out models.Project
	if p != nil {
		out = *p
	}
	s.mu.Unlock()
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProject(mux.Vars(r)["id"])
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if string(p.LeaderID) != callerID(r) {
		writeError(w, http.StatusForbidden, "Only the project leader can update the project")
		return
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProject(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if string(p.LeaderID) != callerID(r) {
		writeError(w, http.StatusForbidden, "Only the project leader can delete the project")
		return
	}
	kept := s.projects[:0]
	for _, other := range s.projects {
		if other.ID != id {
			kept = append(kept, other)
		}
	}
	s.projects = kept
	delete(s.members, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Member{}, s.members[mux.Vars(r)["id"]]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProject(vars["id"])
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	members := s.members[p.ID]
	kept := members[:0]
	removed := false
	for _, m := range members {
		if m.ID == vars["userId"] {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Member not found in project")
		return
	}
	s.members[p.ID] = kept
	refs := p.Members[:0]
	for _, ref := range p.Members {
		if string(ref) != vars["userId"] {
			refs = append(refs, ref)
		}
	}
	p.Members = refs
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed successfully from project"})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskDraft
	if err := decode(r, &req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}
	if req.Status == "" {
		req.Status = models.StatusTodo
	}
	t := &models.Task{ID: newID(), ProjectID: mux.Vars(r)["id"], Title: req.Title, Description: req.Description, Status: req.Status}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.ProjectID == id {
			out = append(out, *t)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) taskDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t := s.findTask(mux.Vars(r)["taskId"])
	var out models.Task
	if t != nil {
		out = *t
	}
	s.mu.Unlock()
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findTask(mux.Vars(r)["taskId"])
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if req.Title != "" {
		t.Title = req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) taskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil || !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findTask(mux.Vars(r)["taskId"])
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	t.Status = req.Status
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listSubtasks(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	s.mu.Lock()
	out := []models.Subtask{}
	for _, st := range s.subtasks {
		if st.TaskID == taskID {
			out = append(out, *st)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSubtask(w http.ResponseWriter, r *http.Request) {
	var req models.SubtaskDraft
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Subtask title is required")
		return
	}
	st := &models.Subtask{ID: newID(), TaskID: mux.Vars(r)["taskId"], Title: req.Title, Description: req.Description, Status: req.Status}
	s.mu.Lock()
	s.subtasks = append(s.subtasks, st)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) sendInvitation(w http.ResponseWriter, r *http.Request) {
	var req models.Invitation
	if err := decode(r, &req); err != nil || req.RecipientID == "" {
		writeError(w, http.StatusBadRequest, "Recipient is required")
		return
	}
	s.mu.Lock()
	s.invitations = append(s.invitations, req)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Invitation sent"})
}
