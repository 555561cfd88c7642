package state

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Farhad7860/TaskFlow/apitest"
	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

type fixture struct {
	srv     *apitest.Server
	store   *Store
	mgr     *session.Manager
	user    models.User
	project models.Project
	task    models.Task
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	api := services.NewAPI(services.NewClient(services.Options{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		BreakerFailures: 50,
		BreakerTimeout:  time.Minute,
		RetryAttempts:   1,
	}))
	mgr := session.NewManager(nil)
	user := srv.SeedUser("Ana", "ana@example.com", "Secret1!")
	if err := mgr.Set(context.Background(), session.New(srv.Token(user.ID, time.Hour), user)); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	store, err := NewStore(api, mgr, opts)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)

	project := srv.SeedProject(user, "Apollo")
	task := srv.SeedTask(project.ID, "Write docs", models.StatusTodo)
	return &fixture{srv: srv, store: store, mgr: mgr, user: user, project: project, task: task}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestIsLoadingOnlyBetweenDispatchAndSettle(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	s := f.store
	member := f.srv.SeedUser("Bo", "bo@example.com", "Secret1!")
	f.srv.AddMember(f.project.ID, member)

	projectsLoading := func() bool { return s.Projects.Snapshot().IsLoading }
	tasksLoading := func() bool { return s.Tasks.Snapshot().IsLoading }
	subtasksLoading := func() bool { return s.Subtasks.Snapshot().IsLoading }
	usersLoading := func() bool { return s.Users.Snapshot().IsLoading }

	cases := []struct {
		route   string
		loading func() bool
		op      func() error
	}{
		{"register", usersLoading, func() error {
			_, err := s.Users.Register(ctx, models.Registration{Name: "Cy", Email: "cy@example.com", Password: "Secret1!"})
			return err
		}},
		{"login", usersLoading, func() error {
			_, err := s.Users.Login(ctx, models.Credentials{Email: "ana@example.com", Password: "Secret1!"})
			return err
		}},
		{"createProject", projectsLoading, func() error {
			_, err := s.Projects.Create(ctx, models.ProjectDraft{Name: "Gemini"})
			return err
		}},
		{"myProjects", projectsLoading, func() error {
			_, err := s.Projects.FetchUserProjects(ctx)
			return err
		}},
		{"projectDetails", projectsLoading, func() error {
			_, err := s.Projects.FetchDetails(ctx, f.project.ID)
			return err
		}},
		{"updateProject", projectsLoading, func() error {
			_, err := s.Projects.Update(ctx, f.project.ID, models.ProjectUpdate{Name: "Apollo 2"})
			return err
		}},
		{"members", projectsLoading, func() error {
			_, err := s.Projects.FetchMembers(ctx, f.project.ID)
			return err
		}},
		{"removeMember", projectsLoading, func() error {
			return s.Projects.RemoveMember(ctx, f.project.ID, member.ID)
		}},
		{"createTask", tasksLoading, func() error {
			_, err := s.Tasks.Create(ctx, f.project.ID, models.TaskDraft{Title: "Review", Status: models.StatusTodo})
			return err
		}},
		{"tasks", tasksLoading, func() error {
			_, err := s.Tasks.Fetch(ctx, f.project.ID)
			return err
		}},
		{"taskDetails", tasksLoading, func() error {
			_, err := s.Tasks.FetchDetails(ctx, f.project.ID, f.task.ID)
			return err
		}},
		{"updateTask", tasksLoading, func() error {
			_, err := s.Tasks.Update(ctx, f.project.ID, f.task.ID, models.TaskUpdate{Title: "Write more docs"})
			return err
		}},
		{"taskStatus", tasksLoading, func() error {
			_, err := s.Tasks.UpdateStatus(ctx, f.project.ID, f.task.ID, models.StatusInProgress)
			return err
		}},
		{"createSubtask", subtasksLoading, func() error {
			_, err := s.Subtasks.Create(ctx, f.project.ID, f.task.ID, models.SubtaskDraft{Title: "Outline"})
			return err
		}},
		{"subtasks", subtasksLoading, func() error {
			_, err := s.Subtasks.Fetch(ctx, f.project.ID, f.task.ID)
			return err
		}},
		{"sendInvitation", func() bool { return s.Invitations.Snapshot().IsLoading }, func() error {
			return s.Invitations.Send(ctx, models.Invitation{ProjectID: f.project.ID, RecipientID: "u9"})
		}},
		{"deleteProject", projectsLoading, func() error {
			return s.Projects.Delete(ctx, f.project.ID)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.route, func(t *testing.T) {
			if tc.loading() {
				t.Fatalf("expected idle slice before dispatch")
			}
			before := f.srv.Hits(tc.route)
			release := f.srv.Hold(tc.route)
			defer release()

			done := make(chan error, 1)
			go func() { done <- tc.op() }()

			waitFor(t, "request to reach the server", func() bool { return f.srv.Hits(tc.route) > before })
			if !tc.loading() {
				t.Fatalf("expected IsLoading while %s is in flight", tc.route)
			}
			release()
			if err := <-done; err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.loading() {
				t.Fatalf("expected IsLoading false after %s settled", tc.route)
			}
		})
	}
}

func TestErrorClearedOnPendingAndSetOnReject(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	f.srv.FailNext("myProjects", 500, "Database unavailable")
	if _, err := f.store.Projects.FetchUserProjects(ctx); err == nil {
		t.Fatalf("expected rejection")
	}
	if got := f.store.Projects.Snapshot().Error; got != "Database unavailable" {
		t.Fatalf("expected stored error, got %q", got)
	}

	release := f.srv.Hold("myProjects")
	defer release()
	done := make(chan error, 1)
	go func() {
		_, err := f.store.Projects.FetchUserProjects(ctx)
		done <- err
	}()
	waitFor(t, "second fetch", func() bool { return f.srv.Hits("myProjects") == 2 })
	if got := f.store.Projects.Snapshot().Error; got != "" {
		t.Fatalf("expected error cleared while pending, got %q", got)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := f.store.Projects.Snapshot()
	if snap.Error != "" || len(snap.State.Projects) != 1 {
		t.Fatalf("expected one project and no error, got %+v", snap)
	}
}

func TestIsLoadingStaysTrueUntilEveryOperationSettles(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	releaseList := f.srv.Hold("myProjects")
	defer releaseList()
	releaseCreate := f.srv.Hold("createProject")
	defer releaseCreate()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); f.store.Projects.FetchUserProjects(ctx) }()
	go func() { defer wg.Done(); f.store.Projects.Create(ctx, models.ProjectDraft{Name: "Gemini"}) }()
	waitFor(t, "both requests", func() bool {
		return f.srv.Hits("myProjects") == 1 && f.srv.Hits("createProject") == 1
	})

	releaseCreate()
	waitFor(t, "create to settle", func() bool {
		return len(f.store.Projects.Snapshot().State.Projects) == 1
	})
	if !f.store.Projects.Snapshot().IsLoading {
		t.Fatalf("expected IsLoading while the list fetch is still in flight")
	}
	releaseList()
	wg.Wait()
	if f.store.Projects.Snapshot().IsLoading {
		t.Fatalf("expected IsLoading false after both settled")
	}
}

func TestUnauthenticatedOperationRejectsWithoutRequest(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.mgr.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	_, err := f.store.Tasks.Fetch(context.Background(), f.project.ID)
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if hits := f.srv.Hits("tasks"); hits != 0 {
		t.Fatalf("expected no request, got %d", hits)
	}
	if got := f.store.Tasks.Snapshot().Error; got != session.ErrNotAuthenticated.Error() {
		t.Fatalf("expected stored error, got %q", got)
	}
}

func TestRemoveMemberLeavesProjectsAndTasksUntouched(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	u1 := f.srv.SeedUser("Uma", "u1@example.com", "Secret1!")
	f.srv.AddMember(f.project.ID, u1)

	if _, err := f.store.Projects.FetchUserProjects(ctx); err != nil {
		t.Fatalf("fetch projects: %v", err)
	}
	if _, err := f.store.Tasks.Fetch(ctx, f.project.ID); err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if _, err := f.store.Projects.FetchMembers(ctx, f.project.ID); err != nil {
		t.Fatalf("fetch members: %v", err)
	}
	projectsBefore := f.store.Projects.Snapshot().State.Projects
	tasksBefore := f.store.Tasks.Snapshot().State

	var events []MemberRemoved
	f.store.Bus.Subscribe(TopicMemberRemoved, func(ev Event) { events = append(events, ev.(MemberRemoved)) })

	if err := f.store.Projects.RemoveMember(ctx, f.project.ID, u1.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	snap := f.store.Projects.Snapshot().State
	for _, m := range snap.Members {
		if m.ID == u1.ID {
			t.Fatalf("expected %s removed from members, got %+v", u1.ID, snap.Members)
		}
	}
	if len(snap.Members) != 1 {
		t.Fatalf("expected only the leader left, got %+v", snap.Members)
	}
	if !reflect.DeepEqual(projectsBefore, snap.Projects) {
		t.Fatalf("expected projects unchanged, got %+v", snap.Projects)
	}
	if !reflect.DeepEqual(tasksBefore, f.store.Tasks.Snapshot().State) {
		t.Fatalf("expected tasks unchanged")
	}
	if len(events) != 1 || events[0].UserID != u1.ID {
		t.Fatalf("expected one MemberRemoved event, got %+v", events)
	}
}

func TestDeleteProjectDropsDependentTasksAndSubtasks(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.store.LoadProject(ctx, f.project.ID); err != nil {
		t.Fatalf("load project: %v", err)
	}
	if _, err := f.store.Subtasks.Create(ctx, f.project.ID, f.task.ID, models.SubtaskDraft{Title: "Outline"}); err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	if err := f.store.Projects.Delete(ctx, f.project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	projects := f.store.Projects.Snapshot().State
	if projects.Selected != nil || len(projects.Members) != 0 {
		t.Fatalf("expected selection and members cleared, got %+v", projects)
	}
	if tasks := f.store.Tasks.Snapshot().State; len(tasks.Tasks) != 0 || tasks.ProjectID != "" {
		t.Fatalf("expected tasks dropped, got %+v", tasks)
	}
	if subs := f.store.Subtasks.Snapshot().State.Subtasks; len(subs) != 0 {
		t.Fatalf("expected subtasks dropped, got %+v", subs)
	}
}

func TestUpdateStatusMovesTaskToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	second := f.srv.SeedTask(f.project.ID, "Ship", models.StatusTodo)

	if _, err := f.store.Tasks.Fetch(ctx, f.project.ID); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := f.store.Tasks.UpdateStatus(ctx, f.project.ID, f.task.ID, models.StatusDone); err != nil {
		t.Fatalf("update status: %v", err)
	}

	tasks := f.store.Tasks.Snapshot().State.Tasks
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != f.task.ID {
		t.Fatalf("expected moved task last, got %+v", tasks)
	}
	if tasks[1].Status != models.StatusDone {
		t.Fatalf("expected status done, got %s", tasks[1].Status)
	}
}

func TestStaleStatusResponseIsDropped(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if _, err := f.store.Tasks.Fetch(ctx, f.project.ID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	releaseFirst := f.srv.Hold("taskStatus")
	defer releaseFirst()
	first := make(chan error, 1)
	go func() {
		_, err := f.store.Tasks.UpdateStatus(ctx, f.project.ID, f.task.ID, models.StatusInProgress)
		first <- err
	}()
	waitFor(t, "first move", func() bool { return f.srv.Hits("taskStatus") == 1 })

	// let the second move through while the first stays held
	f.srv.Hold("taskStatus")()
	if _, err := f.store.Tasks.UpdateStatus(ctx, f.project.ID, f.task.ID, models.StatusDone); err != nil {
		t.Fatalf("second move: %v", err)
	}

	releaseFirst()
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for the older move, got %v", err)
	}
	tasks := f.store.Tasks.Snapshot().State.Tasks
	if len(tasks) != 1 || tasks[0].Status != models.StatusDone {
		t.Fatalf("expected the newer status to win, got %+v", tasks)
	}
}

func TestNewerFetchSupersedesOlder(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	other := f.srv.SeedProject(f.user, "Gemini")
	f.srv.SeedTask(other.ID, "Launch", models.StatusTodo)

	releaseFirst := f.srv.Hold("tasks")
	defer releaseFirst()
	first := make(chan error, 1)
	go func() {
		_, err := f.store.Tasks.Fetch(ctx, f.project.ID)
		first <- err
	}()
	waitFor(t, "first fetch", func() bool { return f.srv.Hits("tasks") == 1 })

	f.srv.Hold("tasks")()
	if _, err := f.store.Tasks.Fetch(ctx, other.ID); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	snap := f.store.Tasks.Snapshot()
	if snap.State.ProjectID != other.ID || len(snap.State.Tasks) != 1 || snap.State.Tasks[0].Title != "Launch" {
		t.Fatalf("expected tasks of the newer fetch, got %+v", snap.State)
	}
	if snap.IsLoading || snap.Error != "" {
		t.Fatalf("expected settled slice without error, got %+v", snap)
	}
}

func TestOperationTimeoutSettlesRejected(t *testing.T) {
	f := newFixture(t, Options{Timeout: 50 * time.Millisecond})
	release := f.srv.Hold("myProjects")
	defer release()

	_, err := f.store.Projects.FetchUserProjects(context.Background())
	if !errors.Is(err, services.ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
	snap := f.store.Projects.Snapshot()
	if snap.IsLoading {
		t.Fatalf("expected IsLoading false after timeout")
	}
	if snap.Error != services.ErrRequestTimeout.Error() {
		t.Fatalf("expected timeout error, got %q", snap.Error)
	}
}

func TestLoadProjectJoinsFailures(t *testing.T) {
	f := newFixture(t, Options{})
	f.srv.FailNext("members", 500, "")

	err := f.store.LoadProject(context.Background(), f.project.ID)
	if err == nil || err.Error() != "Failed to fetch project members" {
		t.Fatalf("expected members fallback error, got %v", err)
	}
	if sel := f.store.Projects.Snapshot().State.Selected; sel == nil || sel.ID != f.project.ID {
		t.Fatalf("expected project details loaded, got %+v", sel)
	}
	if tasks := f.store.Tasks.Snapshot().State.Tasks; len(tasks) != 1 {
		t.Fatalf("expected tasks loaded, got %+v", tasks)
	}
}

func TestLogoutResetsEverySlice(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.store.Users.Login(ctx, models.Credentials{Email: "ana@example.com", Password: "Secret1!"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.store.LoadProject(ctx, f.project.ID); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := f.store.Projects.FetchUserProjects(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := f.store.Users.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !f.mgr.Current().Empty() {
		t.Fatalf("expected session cleared")
	}
	if u := f.store.Users.Snapshot().State.Current; u != nil {
		t.Fatalf("expected no current user, got %+v", u)
	}
	if p := f.store.Projects.Snapshot().State; len(p.Projects) != 0 || p.Selected != nil {
		t.Fatalf("expected projects reset, got %+v", p)
	}
	if ts := f.store.Tasks.Snapshot().State.Tasks; len(ts) != 0 {
		t.Fatalf("expected tasks reset, got %+v", ts)
	}
}

func TestDuplicateRegistrationIsRejected(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.store.Users.Register(context.Background(), models.Registration{Name: "Ana", Email: "ana@example.com", Password: "Secret1!"})
	if err == nil {
		t.Fatalf("expected duplicate email to be rejected")
	}
	snap := f.store.Users.Snapshot()
	if snap.State.Registered {
		t.Fatalf("expected Registered false")
	}
	if snap.Error != "User already exists" {
		t.Fatalf("expected backend message, got %q", snap.Error)
	}
}

func TestSubscribersGetPhasesAndDetachedSnapshots(t *testing.T) {
	f := newFixture(t, Options{})
	var (
		phases []Phase
		last   Snapshot[ProjectState]
	)
	unsubscribe := f.store.Projects.Subscribe(func(s Snapshot[ProjectState], tr Transition) {
		phases = append(phases, tr.Phase)
		last = s
	})

	if _, err := f.store.Projects.FetchUserProjects(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	unsubscribe()

	if !reflect.DeepEqual(phases, []Phase{Pending, Fulfilled}) {
		t.Fatalf("expected pending then fulfilled, got %v", phases)
	}
	last.State.Projects[0].Name = "mutated"
	if got := f.store.Projects.Snapshot().State.Projects[0].Name; got != "Apollo" {
		t.Fatalf("expected slice unaffected by snapshot edits, got %q", got)
	}

	if _, err := f.store.Projects.FetchUserProjects(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(phases) != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %v", phases)
	}
}

func TestFetchedValuesAreDetachedFromSlice(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	tasks, err := f.store.Tasks.Fetch(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	tasks[0].Status = models.StatusDone
	if got := f.store.Tasks.Snapshot().State.Tasks[0].Status; got != models.StatusTodo {
		t.Fatalf("expected slice to keep todo, got %s", got)
	}

	projects, err := f.store.Projects.FetchUserProjects(ctx)
	if err != nil {
		t.Fatalf("fetch projects: %v", err)
	}
	projects[0].Name = "renamed"
	projects[0].Members[0] = "someone-else"
	snap := f.store.Projects.Snapshot().State.Projects[0]
	if snap.Name != "Apollo" || string(snap.Members[0]) != f.user.ID {
		t.Fatalf("expected slice unaffected by caller edits, got %+v", snap)
	}

	members, err := f.store.Projects.FetchMembers(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("fetch members: %v", err)
	}
	members[0].Name = "changed"
	if got := f.store.Projects.Snapshot().State.Members[0].Name; got != "Ana" {
		t.Fatalf("expected member name Ana, got %q", got)
	}

	if _, err := f.store.Subtasks.Create(ctx, f.project.ID, f.task.ID, models.SubtaskDraft{Title: "Outline"}); err != nil {
		t.Fatalf("create subtask: %v", err)
	}
	subs, err := f.store.Subtasks.Fetch(ctx, f.project.ID, f.task.ID)
	if err != nil {
		t.Fatalf("fetch subtasks: %v", err)
	}
	subs[0].Title = "changed"
	if got := f.store.Subtasks.Snapshot().State.Subtasks[0].Title; got != "Outline" {
		t.Fatalf("expected subtask title Outline, got %q", got)
	}
}

func TestLogoutDropsResultsOfOperationsInFlight(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	release := f.srv.Hold("createProject")
	defer release()
	created := make(chan error, 1)
	go func() {
		_, err := f.store.Projects.Create(ctx, models.ProjectDraft{Name: "Late"})
		created <- err
	}()
	waitFor(t, "create to reach the server", func() bool { return f.srv.Hits("createProject") == 1 })

	if err := f.store.Users.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	release()

	if err := <-created; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for the create, got %v", err)
	}
	snap := f.store.Projects.Snapshot()
	if len(snap.State.Projects) != 0 {
		t.Fatalf("expected no projects after logout, got %+v", snap.State.Projects)
	}
	if snap.IsLoading || snap.Error != "" {
		t.Fatalf("expected settled slice without error, got %+v", snap)
	}
}

func TestBlankSubtaskTitleFailsValidationBeforeAuth(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.mgr.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	_, err := f.store.Subtasks.Create(context.Background(), f.project.ID, f.task.ID, models.SubtaskDraft{Title: "  "})
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if hits := f.srv.Hits("createSubtask"); hits != 0 {
		t.Fatalf("expected no request, got %d", hits)
	}
}
