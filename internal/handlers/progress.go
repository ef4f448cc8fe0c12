package handlers

import (
	"context"
	"net/http"
	"time"
)

// HandleDailyRate handles POST /progress/daily: recompute today's
// completion rate from the stored tasks and record it in the
// completion history.
func (h *Handler) HandleDailyRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rate, err := h.Sync.UpdateDailyCompletionRate(ctx)
	if err != nil {
		h.sendSyncError(w, err, "Failed to update completion rate")
		return
	}
	sendJSON(w, http.StatusOK, map[string]float64{"completion_rate": rate})
}

// HandleHistory handles GET /progress/history: the 13-week completion
// grid for the heatmap view.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	grid, err := h.Sync.GetCompletionHistory(ctx)
	if err != nil {
		h.sendSyncError(w, err, "Failed to load completion history")
		return
	}
	sendJSON(w, http.StatusOK, grid)
}
