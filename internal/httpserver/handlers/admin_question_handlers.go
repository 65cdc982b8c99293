package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"prepvault/internal/auth"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/questions"
)

// AddQuestionForUser lets a superadmin submit a question owned by an
// arbitrary user.
func AddQuestionForUser(db *gorm.DB, store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.CurrentUser(r.Context())
		var req struct {
			UserID string `json:"userId"`
			questionReq
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var target models.User
		if err := db.First(&target, "id = ?", req.UserID).Error; err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		q, err := store.Create(r.Context(), questions.CreateInput{
			SubmittedByID: &target.ID,
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
			Actor:       actor,
			Action:      activity.ActionAdminAddQuestion,
			TargetType:  "question",
			TargetID:    q.ID,
			TargetInfo:  questionTargetInfo(q),
			Metadata:    map[string]string{"owner": target.EnrollmentNumber},
			Description: actor.FullName + " added question #" + strconv.Itoa(q.QuestionNumber) + " for " + target.EnrollmentNumber,
		}.FromRequest(r))
		respondStatusJSON(w, http.StatusCreated, q)
	}
}

// TransferQuestion reassigns ownership to the user addressed by enrollment
// number.
func TransferQuestion(store *questions.Store, audit *activity.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.CurrentUser(r.Context())
		var req struct {
			EnrollmentNumber string `json:"enrollment_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := store.Transfer(r.Context(), chi.URLParam(r, "id"), actor, req.EnrollmentNumber)
		if err != nil {
			respondError(w, err)
			return
		}
		audit.Record(activity.Entry{
			Actor:       actor,
			Action:      activity.ActionQuestionTransfer,
			TargetType:  "question",
			TargetID:    q.ID,
			TargetInfo:  questionTargetInfo(q),
			Metadata:    map[string]string{"transferred_to": req.EnrollmentNumber},
			Description: actor.FullName + " transferred question #" + strconv.Itoa(q.QuestionNumber) + " to " + req.EnrollmentNumber,
		}.FromRequest(r))
		respondJSON(w, q)
	}
}

// QuestionHistory exposes the ownership trail for admin review.
func QuestionHistory(store *questions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.History(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, entries)
	}
}

// GetStats serves the admin dashboard counters.
func GetStats(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var totalUsers, totalQuestions, totalCompanies int64
		if err := db.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error; err != nil {
			http.Error(w, "failed to compute stats", http.StatusInternalServerError)
			return
		}
		if err := db.WithContext(ctx).Model(&models.Question{}).Count(&totalQuestions).Error; err != nil {
			http.Error(w, "failed to compute stats", http.StatusInternalServerError)
			return
		}
		if err := db.WithContext(ctx).Model(&models.Company{}).Count(&totalCompanies).Error; err != nil {
			http.Error(w, "failed to compute stats", http.StatusInternalServerError)
			return
		}

		type typeCount struct {
			Type  string `json:"type"`
			Count int64  `json:"count"`
		}
		var byType []typeCount
		if err := db.WithContext(ctx).Model(&models.Question{}).
			Select("type, COUNT(*) as count").
			Group("type").
			Scan(&byType).Error; err != nil {
			http.Error(w, "failed to compute stats", http.StatusInternalServerError)
			return
		}

		type companyCount struct {
			Name  string  `json:"name"`
			Logo  *string `json:"logo,omitempty"`
			Count int64   `json:"count"`
		}
		var topCompanies []companyCount
		if err := db.WithContext(ctx).Model(&models.Question{}).
			Select("companies.name, companies.logo, COUNT(*) as count").
			Joins("JOIN companies ON companies.id = questions.company_id").
			Group("companies.id, companies.name, companies.logo").
			Order("count desc").
			Limit(10).
			Scan(&topCompanies).Error; err != nil {
			http.Error(w, "failed to compute stats", http.StatusInternalServerError)
			return
		}

		respondJSON(w, map[string]any{
			"total_users":       totalUsers,
			"total_questions":   totalQuestions,
			"total_companies":   totalCompanies,
			"questions_by_type": byType,
			"top_companies":     topCompanies,
		})
	}
}
