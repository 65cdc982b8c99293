package handlers

import (
	"net/http"

	"prepvault/internal/auth"
	"prepvault/internal/services/ratelimit"
)

// RateLimitStatus reports the caller's remaining quota for one action kind.
// Read-only and never itself rate limited.
func RateLimitStatus(limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		action := r.URL.Query().Get("action")
		if action == "" {
			action = ratelimit.ActionQuestions
		}
		if _, ok := ratelimit.Limits[action]; !ok {
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		st, err := limiter.Status(r.Context(), u.ID, u.Role, action)
		if err != nil {
			http.Error(w, "failed to read rate limit status", http.StatusInternalServerError)
			return
		}
		respondJSON(w, st)
	}
}
