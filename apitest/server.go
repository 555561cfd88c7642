// Package apitest runs an in-memory TaskFlow backend for tests.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Farhad7860/TaskFlow/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ctxKey struct{}

type account struct {
	user     models.User
	password []byte
}

type failure struct {
	status  int
	message string
}

// Server is an httptest server speaking the TaskFlow REST API.
type Server struct {
	*httptest.Server

	TokenTTL time.Duration

	mu          sync.Mutex
	secret      []byte
	accounts    map[string]*account // by email
	projects    []*models.Project
	members     map[string][]models.Member // by project id
	tasks       []*models.Task
	subtasks    []*models.Subtask
	invitations []models.Invitation
	hits        map[string]int
	bodies      map[string][]json.RawMessage
	failures    map[string][]failure
	gates       map[string]chan struct{}
}

func New() *Server {
	s := &Server{
		TokenTTL: time.Hour,
		secret:   []byte("apitest-secret"),
		accounts: make(map[string]*account),
		members:  make(map[string][]models.Member),
		hits:     make(map[string]int),
		bodies:   make(map[string][]json.RawMessage),
		failures: make(map[string][]failure),
		gates:    make(map[string]chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/users/register", s.route("register", s.register)).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", s.route("login", s.login)).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.auth)
	api.HandleFunc("/projects/create", s.route("createProject", s.createProject)).Methods(http.MethodPost)
	api.HandleFunc("/projects/my-projects", s.route("myProjects", s.myProjects)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/details", s.route("projectDetails", s.projectDetails)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", s.route("updateProject", s.updateProject)).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", s.route("deleteProject", s.deleteProject)).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/members", s.route("members", s.listMembers)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/member/{userId}", s.route("removeMember", s.removeMember)).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/tasks/create", s.route("createTask", s.createTask)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/tasks", s.route("tasks", s.listTasks)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/tasks/{taskId}", s.route("taskDetails", s.taskDetails)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/tasks/{taskId}", s.route("updateTask", s.updateTask)).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}/tasks/{taskId}/status", s.route("taskStatus", s.taskStatus)).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}/tasks/{taskId}/subtasks", s.route("subtasks", s.listSubtasks)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/tasks/{taskId}/subtasks/create", s.route("createSubtask", s.createSubtask)).Methods(http.MethodPost)
	api.HandleFunc("/invitations/send", s.route("sendInvitation", s.sendInvitation)).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	return s
}

// FailNext makes the next request to route answer with status and message.
// An empty message answers with an empty body.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == gate {
				delete(s.gates, route)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits counts requests that reached route, including held and failed ones.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Bodies returns the raw request bodies received on route, in arrival order.
func (s *Server) Bodies(route string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.bodies[route]...)
}

func (s *Server) Invitations() []models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Invitation(nil), s.invitations...)
}

func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&raw)
		}

		s.mu.Lock()
		s.hits[name]++
		if raw != nil {
			s.bodies[name] = append(s.bodies[name], raw)
		}
		gate := s.gates[name]
		var fail *failure
		if queued := s.failures[name]; len(queued) > 0 {
			fail = &queued[0]
			s.failures[name] = queued[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			if fail.message == "" {
				w.WriteHeader(fail.status)
				return
			}
			writeError(w, fail.status, fail.message)
			return
		}

		if raw != nil {
			r = r.WithContext(context.WithValue(r.Context(), rawBodyKey{}, raw))
		}
		h(w, r)
	}
}

type rawBodyKey struct{}

func decode(r *http.Request, v any) error {
	raw, _ := r.Context().Value(rawBodyKey{}).(json.RawMessage)
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenStr == header {
			writeError(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Subject)))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
