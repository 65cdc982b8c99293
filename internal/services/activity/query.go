package activity

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

// ListFilter narrows the admin log view. Zero values impose no constraint.
type ListFilter struct {
	Action     string
	TargetType string
	UserID     string
	ErrorsOnly bool
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Page       int
	PageSize   int
}

func (r *Recorder) List(ctx context.Context, f ListFilter) ([]models.ActivityLog, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}

	q := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ErrorsOnly {
		q = q.Where("is_error = ?", true)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		end := f.EndDate.Add(24*time.Hour - time.Nanosecond)
		q = q.Where("created_at <= ?", end)
	}
	if f.Search != "" {
		pat := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(COALESCE(description, '')) LIKE ? OR LOWER(CAST(user_info AS TEXT)) LIKE ?", pat, pat)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []models.ActivityLog
	err := q.Order("created_at desc").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&logs).Error
	return logs, total, err
}

func (r *Recorder) Get(ctx context.Context, id int64) (*models.ActivityLog, error) {
	var log models.ActivityLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("log entry not found")
		}
		return nil, err
	}
	return &log, nil
}

type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type Stats struct {
	TotalLogs    int64                `json:"total_logs"`
	TodayLogs    int64                `json:"today_logs"`
	ErrorLogs    int64                `json:"error_logs"`
	ActionCounts []ActionCount        `json:"action_counts"`
	RecentErrors []models.ActivityLog `json:"recent_errors"`
}

func (r *Recorder) GetStats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	var s Stats
	if err := db.Model(&models.ActivityLog{}).Count(&s.TotalLogs).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.ActivityLog{}).Where("created_at >= ?", today).Count(&s.TodayLogs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ActivityLog{}).Where("is_error = ?", true).Count(&s.ErrorLogs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ActivityLog{}).
		Select("action, COUNT(*) as count").
		Group("action").
		Order("count desc").
		Limit(10).
		Scan(&s.ActionCounts).Error; err != nil {
		return nil, err
	}
	if err := db.Where("is_error = ?", true).
		Order("created_at desc").
		Limit(5).
		Find(&s.RecentErrors).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Recorder) Actions(ctx context.Context) ([]string, error) {
	var actions []string
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Distinct("action").
		Order("action").
		Pluck("action", &actions).Error
	return actions, err
}
