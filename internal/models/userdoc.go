package models

// UserStats are the aggregate counters kept alongside a user's tasks.
// LongestStreak is stored and zero-initialized but no operation updates
// it yet.
type UserStats struct {
	TotalTasksCompleted int    `json:"totalTasksCompleted"`
	CurrentStreak       int    `json:"currentStreak"`
	LongestStreak       int    `json:"longestStreak"`
	LastCompletedDate   string `json:"lastCompletedDate"` // ISO-8601, empty until first completion
}

// UserDocument is the single persisted record per authenticated user.
type UserDocument struct {
	UserID            string             `json:"userId"`
	Tasks             []Task             `json:"tasks"`
	Stats             UserStats          `json:"stats"`
	CompletionHistory map[string]float64 `json:"completionHistory"` // "YYYY-MM-DD" -> percentage
}

// DefaultTasks returns the starter task list seeded into a fresh user
// document.
func DefaultTasks() []Task {
	titles := []string{
		"Morning meditation",
		"Take medication",
		"Exercise for 30 minutes",
		"Eat a balanced meal",
		"Practice deep breathing",
	}
	tasks := make([]Task, 0, len(titles))
	for _, title := range titles {
		tasks = append(tasks, NewTask(title, ""))
	}
	return tasks
}
