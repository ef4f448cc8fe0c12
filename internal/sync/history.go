package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cortisolapp/cortisol-companion/internal/db"
)

const (
	// GridWeeks columns of GridDays rows back the calendar heatmap:
	// the current week and the twelve before it.
	GridWeeks = 13
	GridDays  = 7
)

// HistoryCell is one day in the completion-history grid. HasData
// distinguishes "0% completed" from "nothing recorded".
type HistoryCell struct {
	Percentage float64 `json:"percentage"`
	HasData    bool    `json:"hasData"`
}

// HistoryGrid is indexed [week][weekday]: weeks oldest to newest,
// weekdays Sunday through Saturday.
type HistoryGrid [GridWeeks][GridDays]HistoryCell

// UpdateDailyCompletionRate recomputes today's completion rate from
// the remote task list and writes it under today's date key,
// overwriting any earlier value for the day. An empty list records 0.
func (s *Service) UpdateDailyCompletionRate(ctx context.Context) (float64, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return 0, err
	}

	doc, err := s.Docs.Get(ctx, userID)
	if err != nil {
		log.Printf("Error updating daily completion rate: %v", err)
		return 0, fmt.Errorf("update daily completion rate: %w", err)
	}

	rate := 0.0
	if len(doc.Tasks) > 0 {
		completed := 0
		for _, task := range doc.Tasks {
			if task.Completed {
				completed++
			}
		}
		rate = float64(completed) / float64(len(doc.Tasks)) * 100
	}

	today := s.now().UTC().Format(dateKeyLayout)
	if err := s.Docs.SetCompletionRate(ctx, userID, today, rate); err != nil {
		log.Printf("Error updating daily completion rate: %v", err)
		return 0, fmt.Errorf("update daily completion rate: %w", err)
	}
	return rate, nil
}

// GetCompletionHistory projects the sparse date-to-percentage map onto
// the fixed 13-week grid ending with the current week. Days with no
// recorded rate, and days still in the future, stay HasData=false.
func (s *Service) GetCompletionHistory(ctx context.Context) (HistoryGrid, error) {
	var grid HistoryGrid

	userID, err := s.userID(ctx)
	if err != nil {
		return grid, err
	}

	history := map[string]float64{}
	doc, err := s.Docs.Get(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrDocNotFound) {
		log.Printf("Error getting completion history: %v", err)
		return grid, fmt.Errorf("get completion history: %w", err)
	}
	if doc != nil {
		history = doc.CompletionHistory
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	firstWeekStart := weekStart.AddDate(0, 0, -7*(GridWeeks-1))

	for week := 0; week < GridWeeks; week++ {
		for day := 0; day < GridDays; day++ {
			date := firstWeekStart.AddDate(0, 0, week*7+day)
			if date.After(today) {
				continue
			}
			if rate, ok := history[date.Format(dateKeyLayout)]; ok {
				grid[week][day] = HistoryCell{Percentage: rate, HasData: true}
			}
		}
	}
	return grid, nil
}
