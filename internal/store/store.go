package store

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cortisolapp/cortisol-companion/internal/models"
)

var ErrEmptyTitle = errors.New("task title cannot be empty")

// TaskStore is the single source of truth for the signed-in user's
// task list in memory. Mutations go through Dispatch so every change
// runs through the reducer and reaches subscribers.
type TaskStore struct {
	tasks       []models.Task
	subscribers []func([]models.Task)
	mutex       sync.Mutex
}

// New returns an empty store.
func New() *TaskStore {
	return &TaskStore{}
}

// NewSeeded returns a store preloaded with the default wellness tasks,
// the state shown before remote hydration completes.
func NewSeeded() *TaskStore {
	return &TaskStore{tasks: models.DefaultTasks()}
}

// Dispatch runs cmd through the reducer and notifies subscribers.
func (s *TaskStore) Dispatch(cmd Command) {
	s.mutex.Lock()
	s.tasks = Reduce(s.tasks, cmd)
	tasks := s.snapshot()
	subscribers := s.subscribers
	s.mutex.Unlock()

	for _, notify := range subscribers {
		notify(tasks)
	}
}

// Subscribe registers a callback invoked with a snapshot of the task
// list after every dispatch.
func (s *TaskStore) Subscribe(fn func([]models.Task)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// AddTask builds a task from the given title/description and appends
// it. A title that is empty after trimming is rejected with no state
// change.
func (s *TaskStore) AddTask(title, description string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	task := models.NewTask(strings.TrimSpace(title), strings.TrimSpace(description))
	s.Dispatch(AddTask{Task: task})
	return task, nil
}

func (s *TaskStore) ToggleTask(id string) {
	s.Dispatch(ToggleTask{ID: id})
}

func (s *TaskStore) DeleteTask(id string) {
	s.Dispatch(DeleteTask{ID: id})
}

func (s *TaskStore) ReorderTasks(tasks []models.Task) {
	s.Dispatch(Reorder{Tasks: tasks})
}

func (s *TaskStore) ReplaceAll(tasks []models.Task) {
	s.Dispatch(ReplaceAll{Tasks: tasks})
}

// Tasks returns a copy of the current list in storage order.
func (s *TaskStore) Tasks() []models.Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshot()
}

func (s *TaskStore) snapshot() []models.Task {
	tasks := make([]models.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// CompletionPercentage returns completed/total*100. On an empty list it
// returns NaN; callers must branch before formatting.
func (s *TaskStore) CompletionPercentage() float64 {
	return CompletionPercentage(s.Tasks())
}

func CompletionPercentage(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return math.NaN()
	}
	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(tasks)) * 100
}

// SortForDisplay returns a copy with completed tasks after incomplete
// ones, relative order preserved within each group. Storage order is
// untouched; only reorders change that.
func SortForDisplay(tasks []models.Task) []models.Task {
	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return !sorted[i].Completed && sorted[j].Completed
	})
	return sorted
}
