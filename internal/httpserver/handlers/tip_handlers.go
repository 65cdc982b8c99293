package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepvault/internal/auth"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/services/tips"
)

func GetCompanyTips(svc *tips.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := svc.Tree(r.Context(), chi.URLParam(r, "companyID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, tree)
	}
}

// CreateTip handles both root tips and replies; replies draw from a separate,
// larger quota.
func CreateTip(svc *tips.Service, limiter *ratelimit.Limiter, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		var req struct {
			Content   string  `json:"content"`
			ParentTip *string `json:"parentTip"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		action := ratelimit.ActionTips
		if req.ParentTip != nil && *req.ParentTip != "" {
			action = ratelimit.ActionReplies
		}
		st, err := limiter.CheckAndConsume(r.Context(), u.ID, u.Role, action)
		setRateLimitHeaders(w, st)
		if err != nil {
			respondError(w, err)
			return
		}

		parent := req.ParentTip
		if parent != nil && *parent == "" {
			parent = nil
		}
		tip, err := svc.Create(r.Context(), chi.URLParam(r, "companyID"), u.ID, req.Content, parent)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionTipCreate,
			TargetType:  "tip",
			TargetID:    tip.ID,
			Description: u.FullName + " posted a tip",
		}.FromRequest(r))
		respondStatusJSON(w, http.StatusCreated, tip)
	}
}

func UpdateTip(svc *tips.Service, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tip, err := svc.Update(r.Context(), chi.URLParam(r, "id"), u, req.Content)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionTipUpdate,
			TargetType:  "tip",
			TargetID:    tip.ID,
			Description: u.FullName + " edited a tip",
		}.FromRequest(r))
		respondJSON(w, tip)
	}
}

func DeleteTip(svc *tips.Service, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		id := chi.URLParam(r, "id")
		if err := svc.Delete(r.Context(), id, u); err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionTipDelete,
			TargetType:  "tip",
			TargetID:    id,
			Description: u.FullName + " deleted a tip",
		}.FromRequest(r))
		respondJSON(w, map[string]string{"message": "tip deleted"})
	}
}
