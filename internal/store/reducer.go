package store

import "github.com/cortisolapp/cortisol-companion/internal/models"

// Command is the closed set of mutations a TaskStore accepts.
type Command interface{ isCommand() }

type AddTask struct{ Task models.Task }

type ToggleTask struct{ ID string }

type DeleteTask struct{ ID string }

// Reorder replaces the whole sequence. The caller is responsible for
// passing a permutation of the current set; no validation happens here.
type Reorder struct{ Tasks []models.Task }

// ReplaceAll hydrates the store from the remote document at session
// start.
type ReplaceAll struct{ Tasks []models.Task }

func (AddTask) isCommand()    {}
func (ToggleTask) isCommand() {}
func (DeleteTask) isCommand() {}
func (Reorder) isCommand()    {}
func (ReplaceAll) isCommand() {}

// Reduce applies one command to a task list and returns the next list.
// It is pure: the input slice is never mutated and unknown ids are
// silent no-ops.
func Reduce(tasks []models.Task, cmd Command) []models.Task {
	switch c := cmd.(type) {
	case AddTask:
		next := make([]models.Task, len(tasks), len(tasks)+1)
		copy(next, tasks)
		return append(next, c.Task)

	case ToggleTask:
		next := make([]models.Task, len(tasks))
		copy(next, tasks)
		for i := range next {
			if next[i].ID == c.ID {
				next[i].Completed = !next[i].Completed
				break
			}
		}
		return next

	case DeleteTask:
		next := make([]models.Task, 0, len(tasks))
		for _, task := range tasks {
			if task.ID != c.ID {
				next = append(next, task)
			}
		}
		return next

	case Reorder:
		next := make([]models.Task, len(c.Tasks))
		copy(next, c.Tasks)
		return next

	case ReplaceAll:
		next := make([]models.Task, len(c.Tasks))
		copy(next, c.Tasks)
		return next

	default:
		return tasks
	}
}
