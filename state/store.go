package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/services"
)

const (
	defaultTimeout = 10 * time.Second
	defaultWorkers = 4
)

type Options struct {
	// Timeout bounds every operation; on expiry the operation settles as rejected.
	Timeout time.Duration
	// Workers bounds the fan-out of LoadProject.
	Workers int
}

// Store wires the slices to one API client, one session source and one bus.
type Store struct {
	Bus         *Bus
	Projects    *ProjectSlice
	Tasks       *TaskSlice
	Subtasks    *SubtaskSlice
	Users       *UserSlice
	Invitations *InvitationSlice

	pool *ants.Pool
}

func NewStore(api *services.API, sessions SessionManager, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(v any) {
		logging.Logger.Errorf("Event ID: WORKER_PANIC, Description: load worker panic: %v", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	bus := NewBus()
	s := &Store{
		Bus:         bus,
		Projects:    NewProjectSlice(api.Projects, sessions, bus, opts.Timeout),
		Tasks:       NewTaskSlice(api.Tasks, sessions, bus, opts.Timeout),
		Subtasks:    NewSubtaskSlice(api.Subtasks, sessions, bus, opts.Timeout),
		Users:       NewUserSlice(api.Users, sessions, bus, opts.Timeout),
		Invitations: NewInvitationSlice(api.Invitations, sessions, opts.Timeout),
		pool:        pool,
	}
	bus.Subscribe(TopicSessionEnded, func(Event) {
		s.Projects.Reset()
		s.Tasks.Reset()
		s.Subtasks.Reset()
		s.Users.Reset()
		s.Invitations.Reset()
	})
	return s, nil
}

// LoadProject fetches a project's details, members and tasks concurrently.
// Each fetch settles its own slice; the returned error joins the failures.
func (s *Store) LoadProject(ctx context.Context, projectID string) error {
	loads := []func() error{
		func() error { _, err := s.Projects.FetchDetails(ctx, projectID); return err },
		func() error { _, err := s.Projects.FetchMembers(ctx, projectID); return err },
		func() error { _, err := s.Tasks.Fetch(ctx, projectID); return err },
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	for _, load := range loads {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			record(load())
		}); err != nil {
			wg.Done()
			record(fmt.Errorf("schedule load: %w", err))
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *Store) Close() {
	s.pool.Release()
}
