// Package activity records the audit trail of mutating actions. Recording is
// fire-and-forget: a failure to write a log entry never fails the operation
// that produced it.
package activity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/models"
)

// Action tags form a closed enumeration.
const (
	ActionLogin       = "LOGIN"
	ActionLogout      = "LOGOUT"
	ActionLoginFailed = "LOGIN_FAILED"

	ActionQuestionCreate   = "QUESTION_CREATE"
	ActionQuestionUpdate   = "QUESTION_UPDATE"
	ActionQuestionDelete   = "QUESTION_DELETE"
	ActionQuestionTransfer = "QUESTION_TRANSFER"
	ActionClaimAdd         = "CLAIM_ADD"
	ActionClaimRemove      = "CLAIM_REMOVE"

	ActionCompanyCreate = "COMPANY_CREATE"
	ActionCompanyUpdate = "COMPANY_UPDATE"

	ActionTipCreate = "TIP_CREATE"
	ActionTipUpdate = "TIP_UPDATE"
	ActionTipDelete = "TIP_DELETE"

	ActionUserRoleChange   = "USER_ROLE_CHANGE"
	ActionAdminAddQuestion = "ADMIN_ADD_QUESTION"
	ActionSystemError      = "SYSTEM_ERROR"
)

// RetentionWindow is how long entries are kept before the purge loop removes
// them.
const RetentionWindow = 30 * 24 * time.Hour

// Entry is the caller-facing shape of one audit record.
type Entry struct {
	Actor        *models.User
	Action       string
	TargetType   string
	TargetID     string
	TargetInfo   any
	Description  string
	Metadata     any
	IsError      bool
	ErrorDetails any

	IP        string
	UserAgent string
	Method    string
	Path      string
}

type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Record persists the entry asynchronously. The caller's context is not used:
// the write must survive the request ending, and its failure is swallowed.
func (r *Recorder) Record(e Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.RecordNow(ctx, e); err != nil {
			r.lg.Warnw("activity log write failed", "action", e.Action, "error", err)
		}
	}()
}

// RecordNow writes the entry synchronously. Most callers want Record.
func (r *Recorder) RecordNow(ctx context.Context, e Entry) error {
	row := models.ActivityLog{
		Action:       e.Action,
		IsError:      e.IsError,
		TargetInfo:   models.ToJSONB(e.TargetInfo),
		Metadata:     models.ToJSONB(e.Metadata),
		ErrorDetails: models.ToJSONB(e.ErrorDetails),
		CreatedAt:    time.Now(),
	}
	if e.Actor != nil {
		row.UserID = &e.Actor.ID
		row.UserInfo = models.ToJSONB(map[string]string{
			"name":              e.Actor.FullName,
			"enrollment_number": e.Actor.EnrollmentNumber,
			"role":              e.Actor.Role,
		})
	}
	row.TargetType = optional(e.TargetType)
	row.TargetID = optional(e.TargetID)
	row.Description = optional(e.Description)
	row.IP = optional(e.IP)
	row.UserAgent = optional(truncate(e.UserAgent, 500))
	row.Method = optional(e.Method)
	row.Path = optional(truncate(e.Path, 500))
	return r.db.WithContext(ctx).Create(&row).Error
}

// FromRequest fills request provenance into the entry.
func (e Entry) FromRequest(req *http.Request) Entry {
	if req == nil {
		return e
	}
	ip := req.RemoteAddr
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	e.IP = ip
	e.UserAgent = req.UserAgent()
	e.Method = req.Method
	e.Path = req.URL.Path
	return e
}

// StartRetentionLoop purges entries older than RetentionWindow once per hour
// until ctx is cancelled.
func (r *Recorder) StartRetentionLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.purgeExpired(ctx)
			}
		}
	}()
}

func (r *Recorder) purgeExpired(ctx context.Context) {
	cutoff := time.Now().Add(-RetentionWindow)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if res.Error != nil {
		r.lg.Warnw("activity log purge failed", "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		r.lg.Infow("purged expired activity logs", "rows", res.RowsAffected)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
