package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepvault/internal/auth"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/questions"
)

func ClaimQuestion(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		q, err := store.Claim(r.Context(), chi.URLParam(r, "id"), u.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionClaimAdd,
			TargetType:  "question",
			TargetID:    q.ID,
			Description: u.FullName + " claimed a question",
		}.FromRequest(r))
		respondJSON(w, q)
	}
}

func UnclaimQuestion(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		q, err := store.Unclaim(r.Context(), chi.URLParam(r, "id"), u.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionClaimRemove,
			TargetType:  "question",
			TargetID:    q.ID,
			Description: u.FullName + " removed their claim",
		}.FromRequest(r))
		respondJSON(w, q)
	}
}

func AdminAddClaim(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		targetUserID := chi.URLParam(r, "userID")
		q, err := store.AdminAddClaim(r.Context(), chi.URLParam(r, "id"), targetUserID)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionClaimAdd,
			TargetType:  "question",
			TargetID:    q.ID,
			Metadata:    map[string]string{"target_user": targetUserID},
			Description: u.FullName + " added a claim on behalf of a user",
		}.FromRequest(r))
		respondJSON(w, q)
	}
}

func AdminRemoveClaim(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		targetUserID := chi.URLParam(r, "userID")
		q, err := store.AdminRemoveClaim(r.Context(), chi.URLParam(r, "id"), targetUserID)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionClaimRemove,
			TargetType:  "question",
			TargetID:    q.ID,
			Metadata:    map[string]string{"target_user": targetUserID},
			Description: u.FullName + " removed a claim on behalf of a user",
		}.FromRequest(r))
		respondJSON(w, q)
	}
}
