// Package sync mirrors task-list mutations to the per-user document
// and derives the aggregate statistics (streak, completion rate,
// history grid). It is the only writer of user documents.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cortisolapp/cortisol-companion/internal/auth"
	"github.com/cortisolapp/cortisol-companion/internal/db"
	"github.com/cortisolapp/cortisol-companion/internal/models"
)

var (
	ErrAuthRequired = errors.New("user not authenticated")
	ErrEmptyTitle   = errors.New("task title cannot be empty")
)

const dateKeyLayout = "2006-01-02"

type Service struct {
	Identity auth.Identity
	Docs     db.UserDocRepositoryInterface

	// Clock overrides the time source in tests. Nil means time.Now.
	Clock func() time.Time
}

func NewService(identity auth.Identity, docs db.UserDocRepositoryInterface) *Service {
	return &Service{Identity: identity, Docs: docs}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) userID(ctx context.Context) (string, error) {
	userID := s.Identity.CurrentUserID(ctx)
	if userID == "" {
		return "", ErrAuthRequired
	}
	return userID, nil
}

// InitializeUserData creates the user document with an empty task list
// and zeroed stats if it does not exist yet. Safe to call on every
// sign-in.
func (s *Service) InitializeUserData(ctx context.Context) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}

	doc := &models.UserDocument{
		UserID:            userID,
		Tasks:             []models.Task{},
		Stats:             models.UserStats{},
		CompletionHistory: map[string]float64{},
	}
	if err := s.Docs.Create(ctx, doc); err != nil {
		log.Printf("Error initializing user data: %v", err)
		return fmt.Errorf("initialize user data: %w", err)
	}
	return nil
}

// GetUserTasks returns the remote task list, or an empty list when the
// document does not exist.
func (s *Service) GetUserTasks(ctx context.Context) ([]models.Task, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.Docs.Get(ctx, userID)
	if errors.Is(err, db.ErrDocNotFound) {
		return []models.Task{}, nil
	}
	if err != nil {
		log.Printf("Error getting tasks: %v", err)
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return doc.Tasks, nil
}

// AddTask builds a task with a fresh id and appends it to the remote
// list via a set-union write. The constructed task is returned so the
// caller can mirror it into local state.
func (s *Service) AddTask(ctx context.Context, title, description string) (models.Task, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return models.Task{}, err
	}
	if strings.TrimSpace(title) == "" {
		return models.Task{}, ErrEmptyTitle
	}

	task := models.NewTask(strings.TrimSpace(title), strings.TrimSpace(description))
	if err := s.Docs.UnionTask(ctx, userID, task); err != nil {
		log.Printf("Error adding task: %v", err)
		return models.Task{}, fmt.Errorf("add task: %w", err)
	}
	return task, nil
}

// DeleteTask removes the task with the given id from the remote list.
// Read-then-write: concurrent deletes from two devices can clobber
// each other, last writer wins.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.Docs.RemoveTask(ctx, userID, taskID); err != nil {
		log.Printf("Error deleting task: %v", err)
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ToggleTask flips the completion flag of one task and adjusts the
// stats in the same document update: the completed counter moves by
// +/-1, the last-completed date advances on completion, and the streak
// grows by one when completing on a new day. An unknown id is a no-op.
//
// "New day" compares day-of-month only, as the app always has; Jan 31
// and Feb 28 count as different days, Jan 31 and Mar 31 do not.
func (s *Service) ToggleTask(ctx context.Context, taskID string) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}

	doc, err := s.Docs.Get(ctx, userID)
	if err != nil {
		log.Printf("Error toggling task: %v", err)
		return fmt.Errorf("toggle task: %w", err)
	}

	index := -1
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == taskID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}

	tasks := make([]models.Task, len(doc.Tasks))
	copy(tasks, doc.Tasks)
	tasks[index].Completed = !tasks[index].Completed
	completing := tasks[index].Completed

	now := s.now().UTC()
	completedDelta := -1
	streakDelta := 0
	lastCompletedDate := ""
	if completing {
		completedDelta = 1
		lastCompletedDate = now.Format(time.RFC3339)
		if isNewDay(doc.Stats.LastCompletedDate, now) {
			streakDelta = 1
		}
	}

	if err := s.Docs.ApplyToggle(ctx, userID, tasks, completedDelta, streakDelta, lastCompletedDate); err != nil {
		log.Printf("Error toggling task: %v", err)
		return fmt.Errorf("toggle task: %w", err)
	}
	return nil
}

// UpdateTaskOrder overwrites the remote task list with the given
// sequence.
func (s *Service) UpdateTaskOrder(ctx context.Context, tasks []models.Task) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.Docs.SetTasks(ctx, userID, tasks); err != nil {
		log.Printf("Error updating task order: %v", err)
		return fmt.Errorf("update task order: %w", err)
	}
	return nil
}

// isNewDay reports whether now falls on a different day-of-month than
// the recorded last completion. An unset or unparseable date counts as
// a new day.
func isNewDay(lastCompletedDate string, now time.Time) bool {
	if lastCompletedDate == "" {
		return true
	}
	last, err := time.Parse(time.RFC3339, lastCompletedDate)
	if err != nil {
		return true
	}
	return last.UTC().Day() != now.Day()
}
