// Package session ties the in-memory TaskStore to the remote sync
// layer for one signed-in user: hydrate at sign-in, then mirror every
// local mutation to the user document.
package session

import (
	"context"

	"github.com/cortisolapp/cortisol-companion/internal/models"
	"github.com/cortisolapp/cortisol-companion/internal/store"
	"github.com/cortisolapp/cortisol-companion/internal/sync"
)

type Session struct {
	Store *store.TaskStore
	Sync  *sync.Service
}

func New(taskStore *store.TaskStore, syncService *sync.Service) *Session {
	return &Session{Store: taskStore, Sync: syncService}
}

// Hydrate ensures the user document exists and replaces the local task
// list with the remote one. Called once per sign-in.
func (s *Session) Hydrate(ctx context.Context) error {
	if err := s.Sync.InitializeUserData(ctx); err != nil {
		return err
	}
	tasks, err := s.Sync.GetUserTasks(ctx)
	if err != nil {
		return err
	}
	s.Store.ReplaceAll(tasks)
	return nil
}

// AddTask creates the task remotely first, then mirrors it into the
// store, so local and remote agree on the generated id.
func (s *Session) AddTask(ctx context.Context, title, description string) (models.Task, error) {
	task, err := s.Sync.AddTask(ctx, title, description)
	if err != nil {
		return models.Task{}, err
	}
	s.Store.Dispatch(store.AddTask{Task: task})
	return task, nil
}

// ToggleTask applies the toggle locally right away and then mirrors it
// remotely. A remote failure is returned to the caller but the local
// state keeps the optimistic value; there is no rollback.
func (s *Session) ToggleTask(ctx context.Context, taskID string) error {
	s.Store.ToggleTask(taskID)
	return s.Sync.ToggleTask(ctx, taskID)
}

// DeleteTask removes the task locally, then remotely. No rollback on
// remote failure.
func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	s.Store.DeleteTask(taskID)
	return s.Sync.DeleteTask(ctx, taskID)
}

// ReorderTasks replaces the local order, then overwrites the remote
// list. No rollback on remote failure.
func (s *Session) ReorderTasks(ctx context.Context, tasks []models.Task) error {
	s.Store.ReorderTasks(tasks)
	return s.Sync.UpdateTaskOrder(ctx, tasks)
}
