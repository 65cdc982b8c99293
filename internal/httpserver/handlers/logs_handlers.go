package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"prepvault/internal/apperr"
	"prepvault/internal/services/activity"
)

// ListLogs serves the admin activity-log view with filters and pagination.
func ListLogs(audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := activity.ListFilter{
			Action:     q.Get("action"),
			TargetType: q.Get("targetType"),
			UserID:     q.Get("userId"),
			ErrorsOnly: q.Get("isError") == "true",
			Search:     q.Get("search"),
			Page:       queryInt(r, "page", 1),
			PageSize:   queryInt(r, "limit", 50),
		}
		if s := q.Get("startDate"); s != "" {
			if t, err := time.Parse("2006-01-02", s); err == nil {
				f.StartDate = &t
			}
		}
		if s := q.Get("endDate"); s != "" {
			if t, err := time.Parse("2006-01-02", s); err == nil {
				f.EndDate = &t
			}
		}
		logs, total, err := audit.List(r.Context(), f)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{
			"logs":       logs,
			"pagination": paginate(f.Page, f.PageSize, total),
		})
	}
}

func LogStats(audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := audit.GetStats(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, stats)
	}
}

func LogActions(audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actions, err := audit.Actions(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string][]string{"actions": actions})
	}
}

func GetLog(audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, apperr.Validation("log id must be numeric"))
			return
		}
		log, err := audit.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, log)
	}
}
