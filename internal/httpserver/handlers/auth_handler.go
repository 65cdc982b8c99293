package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/auth"
	"prepvault/internal/identity"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/questions"
)

// Login hands the client the SSO authorization URL to redirect to.
func Login(provider identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := make([]byte, 16)
		_, _ = rand.Read(state)
		respondJSON(w, map[string]string{"auth_url": provider.AuthorizationURL(hex.EncodeToString(state))})
	}
}

// Callback resolves the auth code to a profile, upserts the user, and issues
// a token.
func Callback(provider identity.Provider, ids *identity.Service, audit *activity.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing auth code", http.StatusBadRequest)
			return
		}
		profile, err := provider.Resolve(r.Context(), code)
		if err != nil {
			lg.Warnw("identity resolution failed", "error", err)
			audit.Record(activity.Entry{
				Action:      activity.ActionLoginFailed,
				Description: "failed login attempt",
				IsError:     true,
				ErrorDetails: map[string]string{
					"message": err.Error(),
				},
			}.FromRequest(r))
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		user, err := ids.Upsert(r.Context(), profile)
		if err != nil {
			lg.Errorw("user upsert failed", "error", err)
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}
		token, err := auth.Sign(user.ID)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		audit.Record(activity.Entry{
			Actor:       user,
			Action:      activity.ActionLogin,
			TargetType:  "user",
			TargetID:    user.ID,
			Description: user.FullName + " logged in",
		}.FromRequest(r))
		respondJSON(w, map[string]any{"token": token, "user": user})
	}
}

func Me(db *gorm.DB, store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		visited, err := store.VisitedIDs(r.Context(), u.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{
			"user":              u,
			"visited_questions": visited,
		})
	}
}

func Logout(audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionLogout,
			TargetType:  "user",
			TargetID:    u.ID,
			Description: u.FullName + " logged out",
		}.FromRequest(r))
		respondJSON(w, map[string]string{"message": "logged out"})
	}
}
