package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cortisolapp/cortisol-companion/internal/auth"
)

/*
Verify the session token from the Authorization header and add the
user id to the request context for the user-scoped handlers.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.Auth.VerifyToken(tokenString)
		if err != nil {
			sendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), auth.UserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}
