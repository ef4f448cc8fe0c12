package models

import (
	"strconv"
	"sync"
	"time"
)

// Task is a single user-managed to-do item. The task list in a user
// document is an ordered sequence: position is meaningful and governed
// only by explicit reorder operations.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"` // ISO-8601, set once at creation
}

const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 200
)

var (
	idMutex sync.Mutex
	lastID  int64
)

// NewTaskID returns a fresh task id from a monotonically-increasing
// millisecond timestamp source. Unique under the single-writer
// assumption; the mutex only guards against two calls landing in the
// same millisecond within one process.
func NewTaskID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now
	return strconv.FormatInt(now, 10)
}

// NewTask constructs an incomplete task with a fresh id and creation
// timestamp. Title validation is the caller's job.
func NewTask(title, description string) Task {
	return Task{
		ID:          NewTaskID(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}
