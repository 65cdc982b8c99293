package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/auth"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
)

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 20)
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}

		q := db.WithContext(r.Context()).Model(&models.User{})
		if search := r.URL.Query().Get("search"); search != "" {
			pat := "%" + strings.ToLower(search) + "%"
			q = q.Where(
				"LOWER(full_name) LIKE ? OR LOWER(enrollment_number) LIKE ? OR LOWER(email) LIKE ? OR LOWER(branch) LIKE ?",
				pat, pat, pat, pat)
		}
		if role := r.URL.Query().Get("role"); role != "" {
			q = q.Where("role = ?", role)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			http.Error(w, "failed to list users", http.StatusInternalServerError)
			return
		}
		var users []models.User
		if err := q.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
			http.Error(w, "failed to list users", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{
			"users":      users,
			"pagination": paginate(page, limit, total),
		})
	}
}

// UpdateUserRole flips a user between user and admin. The superadmin row is
// immutable: it is derived from a configured enrollment number, not managed
// here.
func UpdateUserRole(db *gorm.DB, audit *activity.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.CurrentUser(r.Context())
		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
			http.Error(w, "invalid role, must be user or admin", http.StatusBadRequest)
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if u.Role == models.RoleSuperadmin {
			http.Error(w, "cannot change superadmin role", http.StatusForbidden)
			return
		}
		previous := u.Role
		u.Role = req.Role
		if err := db.Save(&u).Error; err != nil {
			http.Error(w, "failed to update role", http.StatusInternalServerError)
			return
		}
		audit.Record(activity.Entry{
			Actor:       actor,
			Action:      activity.ActionUserRoleChange,
			TargetType:  "user",
			TargetID:    u.ID,
			Metadata:    map[string]string{"from": previous, "to": u.Role},
			Description: actor.FullName + " changed role of " + u.EnrollmentNumber + " to " + u.Role,
		}.FromRequest(r))
		respondJSON(w, u)
	}
}
