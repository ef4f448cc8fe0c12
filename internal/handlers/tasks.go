package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cortisolapp/cortisol-companion/internal/models"
	tasksync "github.com/cortisolapp/cortisol-companion/internal/sync"
)

/*
handles routes:
- GET /tasks - list the signed-in user's tasks
- POST /tasks - create a new task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tasks, err := h.Sync.GetUserTasks(ctx)
	if err != nil {
		h.sendSyncError(w, err, "Failed to list tasks")
		return
	}
	sendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		sendError(w, "title is required", http.StatusBadRequest)
		return
	}
	if len(title) > models.MaxTitleLen {
		sendError(w, "title too long (max 50 chars)", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(input.Description)) > models.MaxDescriptionLen {
		sendError(w, "description too long (max 200 chars)", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task, err := h.Sync.AddTask(ctx, title, input.Description)
	if err != nil {
		h.sendSyncError(w, err, "Failed to create task")
		return
	}

	h.WSHub.Broadcast(h.userID(r), "task_added", task)
	w.Header().Set("Location", "/tasks/"+task.ID)
	sendJSON(w, http.StatusCreated, task)
}

/*
routes:
- POST /tasks/{id}/toggle,
- DELETE /tasks/{id}
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if rest == "" {
		sendError(w, "task_id is required", http.StatusBadRequest)
		return
	}

	if taskID, ok := strings.CutSuffix(rest, "/toggle"); ok {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.toggleTask(w, r, taskID)
		return
	}

	if r.Method != http.MethodDelete {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.deleteTask(w, r, rest)
}

func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request, taskID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Sync.ToggleTask(ctx, taskID); err != nil {
		h.sendSyncError(w, err, "Failed to toggle task")
		return
	}
	h.WSHub.Broadcast(h.userID(r), "task_toggled", map[string]string{"task_id": taskID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Sync.DeleteTask(ctx, taskID); err != nil {
		h.sendSyncError(w, err, "Failed to delete task")
		return
	}
	h.WSHub.Broadcast(h.userID(r), "task_deleted", map[string]string{"task_id": taskID})
	w.WriteHeader(http.StatusNoContent)
}

// HandleTaskOrder handles PUT /tasks/order: the request body is the
// full task list in its new order and overwrites the stored sequence
// verbatim.
func (h *Handler) HandleTaskOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var tasks []models.Task
	if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Sync.UpdateTaskOrder(ctx, tasks); err != nil {
		h.sendSyncError(w, err, "Failed to update task order")
		return
	}
	h.WSHub.Broadcast(h.userID(r), "order_updated", tasks)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(r *http.Request) string {
	return h.Sync.Identity.CurrentUserID(r.Context())
}

func (h *Handler) sendSyncError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, tasksync.ErrAuthRequired):
		sendError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, tasksync.ErrEmptyTitle):
		sendError(w, "title is required", http.StatusBadRequest)
	default:
		log.Printf("%s: %v", fallback, err)
		sendError(w, fallback, http.StatusInternalServerError)
	}
}
