package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Farhad7860/TaskFlow/logging"
)

// Persister is the storage a Manager writes through to.
type Persister interface {
	Save(ctx context.Context, sess Session) error
	Load(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}

// Manager owns the current session. Readers get a value copy, so a request
// keeps the credential it started with even if the user logs out meanwhile.
type Manager struct {
	mu    sync.RWMutex
	cur   Session
	store Persister
	now   func() time.Time
}

func NewManager(store Persister) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Restore loads the persisted session, if any. Expired sessions are dropped.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	sess, err := m.store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.Expired(m.now()) {
		logging.Logger.Infof("Event ID: SESSION_EXPIRED, Description: Stored session for %s expired at %s", sess.User.Email, sess.ExpiresAt)
		return m.store.Clear(ctx)
	}
	m.mu.Lock()
	m.cur = sess
	m.mu.Unlock()
	return nil
}

func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Check runs the pre-flight credential check against the current session.
func (m *Manager) Check() (Session, error) {
	sess := m.Current()
	if err := sess.Check(m.now()); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (m *Manager) Set(ctx context.Context, sess Session) error {
	m.mu.Lock()
	m.cur = sess
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, sess)
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.cur = Session{}
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	return m.store.Clear(ctx)
}
