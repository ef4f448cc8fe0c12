package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cortisolapp/cortisol-companion/internal/models"
)

var ErrDocNotFound = errors.New("user document not found")

// defines the primitive writes the sync layer is allowed to issue
// against a user document: create-if-absent, read, set-field,
// set-union/set-difference on the task array, and the combined toggle
// update carrying the stats increments.
type UserDocRepositoryInterface interface {
	Create(ctx context.Context, doc *models.UserDocument) error
	Get(ctx context.Context, userID string) (*models.UserDocument, error)
	SetTasks(ctx context.Context, userID string, tasks []models.Task) error
	UnionTask(ctx context.Context, userID string, task models.Task) error
	RemoveTask(ctx context.Context, userID string, taskID string) error
	ApplyToggle(ctx context.Context, userID string, tasks []models.Task,
		completedDelta, streakDelta int, lastCompletedDate string) error
	SetCompletionRate(ctx context.Context, userID string, date string, percentage float64) error
}

// UserDocRepository persists one row per user holding the task list
// and completion history as JSON and the stats as plain columns.
//
// UnionTask/RemoveTask/SetCompletionRate are read-modify-write, not
// transactional: two writers racing on the same document see last
// writer wins, same as the backing mobile client always has.
type UserDocRepository struct {
	db *sql.DB
}

func NewUserDocRepository(db *sql.DB) *UserDocRepository {
	return &UserDocRepository{db: db}
}

// Create inserts the document if no row exists for the user yet.
// Calling it for an existing user is a no-op.
func (r *UserDocRepository) Create(ctx context.Context, doc *models.UserDocument) error {
	tasksJSON, err := json.Marshal(doc.Tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	historyJSON, err := json.Marshal(doc.CompletionHistory)
	if err != nil {
		return fmt.Errorf("marshal completion history: %w", err)
	}

	query := `INSERT INTO user_documents
	 (user_id, tasks, total_tasks_completed, current_streak, longest_streak, last_completed_date, completion_history)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (user_id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, query,
		doc.UserID, string(tasksJSON),
		doc.Stats.TotalTasksCompleted, doc.Stats.CurrentStreak,
		doc.Stats.LongestStreak, doc.Stats.LastCompletedDate,
		string(historyJSON))
	return err
}

func (r *UserDocRepository) Get(ctx context.Context, userID string) (*models.UserDocument, error) {
	query := `SELECT user_id, tasks, total_tasks_completed, current_streak, longest_streak,
	 last_completed_date, completion_history FROM user_documents WHERE user_id = $1`

	doc := &models.UserDocument{}
	var tasksJSON, historyJSON string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&doc.UserID, &tasksJSON,
		&doc.Stats.TotalTasksCompleted, &doc.Stats.CurrentStreak,
		&doc.Stats.LongestStreak, &doc.Stats.LastCompletedDate,
		&historyJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tasksJSON), &doc.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &doc.CompletionHistory); err != nil {
		return nil, fmt.Errorf("unmarshal completion history: %w", err)
	}
	return doc, nil
}

// SetTasks overwrites the task array unconditionally.
func (r *UserDocRepository) SetTasks(ctx context.Context, userID string, tasks []models.Task) error {
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	return r.execOnDoc(ctx, `UPDATE user_documents SET tasks = $1 WHERE user_id = $2`,
		string(tasksJSON), userID)
}

// UnionTask appends the task unless one with the same id is already
// present.
func (r *UserDocRepository) UnionTask(ctx context.Context, userID string, task models.Task) error {
	doc, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	for _, existing := range doc.Tasks {
		if existing.ID == task.ID {
			return nil
		}
	}
	return r.SetTasks(ctx, userID, append(doc.Tasks, task))
}

// RemoveTask drops the task with the given id from the array. Absent
// ids are a no-op.
func (r *UserDocRepository) RemoveTask(ctx context.Context, userID string, taskID string) error {
	doc, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	remaining := make([]models.Task, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.ID != taskID {
			remaining = append(remaining, task)
		}
	}
	if len(remaining) == len(doc.Tasks) {
		return nil
	}
	return r.SetTasks(ctx, userID, remaining)
}

// ApplyToggle writes the new task array together with the stats
// adjustments in a single statement. An empty lastCompletedDate leaves
// the stored value untouched.
func (r *UserDocRepository) ApplyToggle(ctx context.Context, userID string, tasks []models.Task,
	completedDelta, streakDelta int, lastCompletedDate string) error {

	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	query := `UPDATE user_documents SET
	 tasks = $1,
	 total_tasks_completed = total_tasks_completed + $2,
	 current_streak = current_streak + $3,
	 last_completed_date = CASE WHEN $4 <> '' THEN $4 ELSE last_completed_date END
	 WHERE user_id = $5`

	return r.execOnDoc(ctx, query,
		string(tasksJSON), completedDelta, streakDelta, lastCompletedDate, userID)
}

// SetCompletionRate writes the percentage under the given date key,
// overwriting any entry already recorded for that date.
func (r *UserDocRepository) SetCompletionRate(ctx context.Context, userID string, date string, percentage float64) error {
	doc, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	history := doc.CompletionHistory
	if history == nil {
		history = make(map[string]float64)
	}
	history[date] = percentage

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal completion history: %w", err)
	}
	return r.execOnDoc(ctx, `UPDATE user_documents SET completion_history = $1 WHERE user_id = $2`,
		string(historyJSON), userID)
}

func (r *UserDocRepository) execOnDoc(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDocNotFound
	}
	return nil
}
