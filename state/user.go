package state

import (
	"context"
	"time"

	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

// SessionManager is what the user slice needs to log in and out.
// *session.Manager implements it.
type SessionManager interface {
	Sessions
	Set(ctx context.Context, sess session.Session) error
	Clear(ctx context.Context) error
}

type UserState struct {
	Current    *models.User
	Registered bool
}

func cloneUser(s UserState) UserState {
	return UserState{Current: clonePtr(s.Current), Registered: s.Registered}
}

type UserSlice struct {
	*core[UserState]
	api      *services.UserService
	sessions SessionManager
	bus      *Bus
}

func NewUserSlice(api *services.UserService, sessions SessionManager, bus *Bus, timeout time.Duration) *UserSlice {
	s := &UserSlice{
		core:     newCore("users", timeout, func() UserState { return UserState{} }, cloneUser),
		api:      api,
		sessions: sessions,
		bus:      bus,
	}
	if cur := sessions.Current(); !cur.Empty() {
		u := cur.User
		s.state.Current = &u
	}
	return s
}

func (s *UserSlice) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	return run(s.core, ctx, "register", "",
		func(ctx context.Context) (models.User, error) {
			return s.api.RegisterUser(ctx, reg)
		},
		func(st *UserState, _ models.User) bool {
			st.Registered = true
			return true
		})
}

// Login authenticates and persists the resulting session. A session that
// cannot be persisted rejects the login.
func (s *UserSlice) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	return run(s.core, ctx, "login", "",
		func(ctx context.Context) (models.User, error) {
			res, err := s.api.LoginUser(ctx, creds)
			if err != nil {
				return models.User{}, err
			}
			if err := s.sessions.Set(ctx, session.New(res.Token, res.User)); err != nil {
				return models.User{}, err
			}
			logging.Logger.Infof("Event ID: USER_LOGGED_IN, Description: %s logged in", res.User.Email)
			return res.User, nil
		},
		func(st *UserState, u models.User) bool {
			st.Current = &u
			return true
		})
}

// Logout clears the stored session and publishes SessionEnded, which resets
// every slice.
func (s *UserSlice) Logout(ctx context.Context) error {
	_, err := run(s.core, ctx, "logout", "",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.sessions.Clear(ctx)
		},
		func(st *UserState, _ struct{}) bool {
			st.Current = nil
			return true
		})
	if err != nil {
		return err
	}
	s.bus.Publish(SessionEnded{})
	return nil
}

func (s *UserSlice) Reset() { s.reset() }
