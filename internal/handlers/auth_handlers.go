package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cortisolapp/cortisol-companion/internal/auth"
)

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		log.Printf("Invalid method for register: %s", r.Method)
		sendError(w, "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		log.Printf("Rate limit exceeded for IP: %s", ip)
		sendError(w, "Too many register attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		sendError(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	user, err := h.Auth.SignUp(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordTooShort):
			sendError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Error registering user: %v", err)
			sendError(w, "Cannot save user", http.StatusInternalServerError)
		}
		return
	}

	sendJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		log.Printf("Invalid method for login: %s", r.Method)
		sendError(w, "Use POST method for login", http.StatusMethodNotAllowed)
		return
	}

	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		log.Printf("Rate limit exceeded for IP: %s", ip)
		sendError(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		sendError(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	if err := auth.ValidateCredentials(input.Email, input.Password); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, token, err := h.Auth.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			sendError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Printf("Error logging in: %v", err)
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	// Make sure the user document exists before the client starts
	// reading tasks.
	ctx := context.WithValue(r.Context(), auth.UserIDContextKey, user.ID.String())
	if err := h.Sync.InitializeUserData(ctx); err != nil {
		log.Printf("Error initializing user data: %v", err)
		sendError(w, "Cannot initialize user data", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"user_email": input.Email,
		"user_id":    user.ID,
		"token":      token,
	})
}
