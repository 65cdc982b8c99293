package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prepvault/internal/auth"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/questions"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/services/search"
)

func ListQuestions(engine *search.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 20)
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}
		params := search.Params{
			CompanyID: q.Get("company"),
			Type:      q.Get("type"),
			Year:      queryInt(r, "year", 0),
			FreeText:  q.Get("search"),
			SortBy:    q.Get("sortBy"),
			SortOrder: q.Get("sortOrder"),
			Page:      page,
			PageSize:  limit,
		}
		items, total, err := engine.Search(r.Context(), params)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{
			"questions":  items,
			"pagination": paginate(page, limit, total),
		})
	}
}

func GetQuestion(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, q)
	}
}

type questionReq struct {
	Company     string  `json:"company"`
	Type        string  `json:"type"`
	OtherType   *string `json:"otherType"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Question    string  `json:"question"`
	Suggestions *string `json:"suggestions"`
}

func CreateQuestion(store *questions.Store, limiter *ratelimit.Limiter, audit *activity.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())

		st, err := limiter.CheckAndConsume(r.Context(), u.ID, u.Role, ratelimit.ActionQuestions)
		setRateLimitHeaders(w, st)
		if err != nil {
			respondError(w, err)
			return
		}

		var req questionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := store.Create(r.Context(), questions.CreateInput{
			SubmittedByID: &u.ID,
			CompanyID:     req.Company,
			Type:          req.Type,
			OtherType:     req.OtherType,
			Month:         req.Month,
			Year:          req.Year,
			Question:      req.Question,
			Suggestions:   req.Suggestions,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionQuestionCreate,
			TargetType:  "question",
			TargetID:    q.ID,
			TargetInfo:  questionTargetInfo(q),
			Description: u.FullName + " created question #" + strconv.Itoa(q.QuestionNumber),
		}.FromRequest(r))
		respondStatusJSON(w, http.StatusCreated, q)
	}
}

func UpdateQuestion(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())

		// Decode twice: once for values, once to tell an omitted suggestions
		// field apart from an explicit clear.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in := questions.UpdateInput{}
		decodeField(raw, "company", &in.CompanyID)
		decodeField(raw, "type", &in.Type)
		decodeField(raw, "otherType", &in.OtherType)
		decodeField(raw, "month", &in.Month)
		decodeField(raw, "year", &in.Year)
		decodeField(raw, "question", &in.Question)
		if msg, ok := raw["suggestions"]; ok {
			in.SuggestionsSet = true
			_ = json.Unmarshal(msg, &in.Suggestions)
		}

		q, err := store.Update(r.Context(), chi.URLParam(r, "id"), u, in)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       u,
			Action:      activity.ActionQuestionUpdate,
			TargetType:  "question",
			TargetID:    q.ID,
			TargetInfo:  questionTargetInfo(q),
			Description: u.FullName + " updated question #" + strconv.Itoa(q.QuestionNumber),
		}.FromRequest(r))
		respondJSON(w, q)
	}
}

func DeleteQuestion(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := auth.CurrentUser(r.Context())
		if err := store.Delete(r.Context(), chi.URLParam(r, "id"), u); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]string{"message": "question deleted"})
	}
}

func MyQuestions(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListMine(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, qs)
	}
}

func MyClaimsCount(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.CountClaimsByUser(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]int64{"count": n})
	}
}

func ToggleVisited(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visited, err := store.ToggleVisited(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]bool{"visited": visited})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, st ratelimit.Status) {
	if !st.Enforced {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(st.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(st.Remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(st.ResetIn))
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst **T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return
	}
	*dst = &v
}

func questionTargetInfo(q *models.Question) map[string]any {
	info := map[string]any{
		"question_number": q.QuestionNumber,
		"company_id":      q.CompanyID,
	}
	if q.Company != nil {
		info["company"] = q.Company.Name
	}
	return info
}
