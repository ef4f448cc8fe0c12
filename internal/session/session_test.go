package session

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cortisolapp/cortisol-companion/internal/db"
	"github.com/cortisolapp/cortisol-companion/internal/models"
	"github.com/cortisolapp/cortisol-companion/internal/store"
	"github.com/cortisolapp/cortisol-companion/internal/sync"
)

type staticIdentity string

func (s staticIdentity) CurrentUserID(ctx context.Context) string { return string(s) }

var errRemoteDown = errors.New("remote unavailable")

// flakyDocs fails selected writes to simulate backend outages.
type flakyDocs struct {
	db.UserDocRepositoryInterface
	failToggle bool
	failRemove bool
}

func (f *flakyDocs) ApplyToggle(ctx context.Context, userID string, tasks []models.Task,
	completedDelta, streakDelta int, lastCompletedDate string) error {
	if f.failToggle {
		return errRemoteDown
	}
	return f.UserDocRepositoryInterface.ApplyToggle(ctx, userID, tasks, completedDelta, streakDelta, lastCompletedDate)
}

func (f *flakyDocs) RemoveTask(ctx context.Context, userID string, taskID string) error {
	if f.failRemove {
		return errRemoteDown
	}
	return f.UserDocRepositoryInterface.RemoveTask(ctx, userID, taskID)
}

func newTestSession(t *testing.T) (*Session, *flakyDocs) {
	t.Helper()
	dbx, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	})
	ddl := `
CREATE TABLE user_documents (
  user_id TEXT PRIMARY KEY,
  tasks TEXT NOT NULL,
  total_tasks_completed INTEGER NOT NULL DEFAULT 0,
  current_streak INTEGER NOT NULL DEFAULT 0,
  longest_streak INTEGER NOT NULL DEFAULT 0,
  last_completed_date TEXT NOT NULL DEFAULT '',
  completion_history TEXT NOT NULL
);
`
	if _, err := dbx.Exec(ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	docs := &flakyDocs{UserDocRepositoryInterface: db.NewUserDocRepository(dbx)}
	syncService := sync.NewService(staticIdentity("u1"), docs)
	syncService.Clock = func() time.Time {
		return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	}
	return New(store.NewSeeded(), syncService), docs
}

func TestHydrate_ReplacesSeededTasksWithRemote(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	// fresh document: remote list is empty, seeds are gone
	if got := s.Store.Tasks(); len(got) != 0 {
		t.Fatalf("want empty store after first hydrate, got %d tasks", len(got))
	}

	task, err := s.AddTask(ctx, "Exercise", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// a second sign-in hydrates the same list back
	s.Store.ReplaceAll(nil)
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("second Hydrate: %v", err)
	}
	got := s.Store.Tasks()
	if len(got) != 1 || got[0].ID != task.ID {
		t.Fatalf("hydrate lost the task: %+v", got)
	}
}

func TestAddTask_LocalAndRemoteShareID(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	task, err := s.AddTask(ctx, "Meditate", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	local := s.Store.Tasks()
	if len(local) != 1 || local[0].ID != task.ID {
		t.Fatalf("local store out of step: %+v", local)
	}
	remote, err := s.Sync.GetUserTasks(ctx)
	if err != nil {
		t.Fatalf("GetUserTasks: %v", err)
	}
	if len(remote) != 1 || remote[0].ID != task.ID {
		t.Fatalf("remote out of step: %+v", remote)
	}
}

func TestToggleTask_RemoteFailureKeepsOptimisticState(t *testing.T) {
	s, docs := newTestSession(t)
	ctx := context.Background()
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	task, err := s.AddTask(ctx, "Exercise", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	docs.failToggle = true
	err = s.ToggleTask(ctx, task.ID)
	if !errors.Is(err, errRemoteDown) {
		t.Fatalf("want remote error surfaced, got %v", err)
	}

	// local state keeps the optimistic toggle, remote still incomplete
	if !s.Store.Tasks()[0].Completed {
		t.Fatalf("optimistic local toggle was rolled back")
	}
	remote, err := s.Sync.GetUserTasks(ctx)
	if err != nil {
		t.Fatalf("GetUserTasks: %v", err)
	}
	if remote[0].Completed {
		t.Fatalf("remote should not have applied the failed toggle")
	}
}

func TestDeleteTask_RemoteFailureKeepsLocalDeletion(t *testing.T) {
	s, docs := newTestSession(t)
	ctx := context.Background()
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	task, err := s.AddTask(ctx, "Exercise", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	docs.failRemove = true
	if err := s.DeleteTask(ctx, task.ID); !errors.Is(err, errRemoteDown) {
		t.Fatalf("want remote error surfaced, got %v", err)
	}

	if len(s.Store.Tasks()) != 0 {
		t.Fatalf("local delete was rolled back")
	}
	remote, err := s.Sync.GetUserTasks(ctx)
	if err != nil {
		t.Fatalf("GetUserTasks: %v", err)
	}
	if len(remote) != 1 {
		t.Fatalf("remote should still hold the task")
	}
}

func TestReorderTasks_MirrorsPermutation(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	a, _ := s.AddTask(ctx, "A", "")
	b, _ := s.AddTask(ctx, "B", "")
	c, _ := s.AddTask(ctx, "C", "")

	if err := s.ReorderTasks(ctx, []models.Task{b, c, a}); err != nil {
		t.Fatalf("ReorderTasks: %v", err)
	}

	want := []string{b.ID, c.ID, a.ID}
	local := s.Store.Tasks()
	remote, err := s.Sync.GetUserTasks(ctx)
	if err != nil {
		t.Fatalf("GetUserTasks: %v", err)
	}
	for i, id := range want {
		if local[i].ID != id || remote[i].ID != id {
			t.Fatalf("order mismatch at %d: local=%s remote=%s want=%s", i, local[i].ID, remote[i].ID, id)
		}
	}
}
