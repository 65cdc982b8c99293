// Package questions owns question records: creation with per-company sequence
// numbering, owner-or-admin gated edits, ownership transfer, and the claim
// ledger.
package questions

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/sanitize"
)

// numberingAttempts bounds the retry loop that resolves concurrent numbering
// conflicts before surfacing Conflict to the caller.
const numberingAttempts = 3

type Store struct {
	db    *gorm.DB
	lg    *zap.SugaredLogger
	audit *activity.Recorder
}

func NewStore(db *gorm.DB, lg *zap.SugaredLogger, audit *activity.Recorder) *Store {
	return &Store{db: db, lg: lg, audit: audit}
}

type CreateInput struct {
	SubmittedByID *string
	CompanyID     string
	Type          string
	OtherType     *string
	Month         int
	Year          int
	Question      string
	Suggestions   *string
}

func validType(t string) bool {
	return t == models.QuestionTypeInterview || t == models.QuestionTypeOA || t == models.QuestionTypeOthers
}

func (in *CreateInput) validate() error {
	if in.CompanyID == "" {
		return apperr.Validation("company is required")
	}
	if !validType(in.Type) {
		return apperr.Validation("type must be one of interview, oa, others")
	}
	if in.Type == models.QuestionTypeOthers && (in.OtherType == nil || *in.OtherType == "") {
		return apperr.Validation("otherType is required when type is others")
	}
	if in.Month < 1 || in.Month > 12 {
		return apperr.Validation("month must be between 1 and 12")
	}
	if in.Year <= 0 {
		return apperr.Validation("year is required")
	}
	if in.Question == "" {
		return apperr.Validation("question text is required")
	}
	return nil
}

// Create validates, assigns the next per-company number and inserts, all in
// one transaction. A duplicate (company, number) means we lost the race to a
// concurrent create; recompute and try again.
func (s *Store) Create(ctx context.Context, in CreateInput) (*models.Question, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", in.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}

	otherType := in.OtherType
	if in.Type != models.QuestionTypeOthers {
		otherType = nil
	}
	q := models.Question{
		SubmittedByID: in.SubmittedByID,
		CompanyID:     in.CompanyID,
		Type:          in.Type,
		OtherType:     otherType,
		Month:         in.Month,
		Year:          in.Year,
		Question:      sanitize.HTML(in.Question),
		Suggestions:   sanitize.HTMLPtr(in.Suggestions),
	}

	var lastErr error
	for attempt := 0; attempt < numberingAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, err := nextNumber(tx, in.CompanyID, "")
			if err != nil {
				return err
			}
			q.ID = ""
			q.QuestionNumber = n
			return tx.Create(&q).Error
		})
		if err == nil {
			return s.Get(ctx, q.ID)
		}
		lastErr = err
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Unavailable("could not create question", err)
		}
		s.lg.Debugw("question number conflict, retrying", "company", in.CompanyID, "attempt", attempt+1)
	}
	return nil, apperr.Conflict("could not assign a question number, please retry: %v", lastErr)
}

// UpdateInput is a partial patch. Nil pointer fields are left untouched.
// SuggestionsSet distinguishes "clear suggestions" from "field omitted".
type UpdateInput struct {
	CompanyID      *string
	Type           *string
	OtherType      *string
	Month          *int
	Year           *int
	Question       *string
	Suggestions    *string
	SuggestionsSet bool
}

func (s *Store) Update(ctx context.Context, id string, actor *models.User, in UpdateInput) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}
	if err := authorizeMutation(&q, actor); err != nil {
		return nil, err
	}

	if in.Type != nil {
		if !validType(*in.Type) {
			return nil, apperr.Validation("type must be one of interview, oa, others")
		}
		q.Type = *in.Type
	}
	if q.Type == models.QuestionTypeOthers {
		if in.OtherType != nil && *in.OtherType != "" {
			q.OtherType = in.OtherType
		}
		if q.OtherType == nil || *q.OtherType == "" {
			return nil, apperr.Validation("otherType is required when type is others")
		}
	} else {
		q.OtherType = nil
	}
	if in.Month != nil {
		if *in.Month < 1 || *in.Month > 12 {
			return nil, apperr.Validation("month must be between 1 and 12")
		}
		q.Month = *in.Month
	}
	if in.Year != nil {
		if *in.Year <= 0 {
			return nil, apperr.Validation("year is required")
		}
		q.Year = *in.Year
	}
	if in.Question != nil {
		if *in.Question == "" {
			return nil, apperr.Validation("question text is required")
		}
		q.Question = sanitize.HTML(*in.Question)
	}
	if in.SuggestionsSet {
		if in.Suggestions == nil || *in.Suggestions == "" {
			q.Suggestions = nil
		} else {
			q.Suggestions = sanitize.HTMLPtr(in.Suggestions)
		}
	}

	recompany := in.CompanyID != nil && *in.CompanyID != q.CompanyID
	if recompany {
		var company models.Company
		if err := s.db.WithContext(ctx).First(&company, "id = ?", *in.CompanyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("company not found")
			}
			return nil, apperr.Unavailable("store unavailable", err)
		}
		q.CompanyID = *in.CompanyID
	}

	var lastErr error
	for attempt := 0; attempt < numberingAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if recompany {
				// Moving companies means the question is numbered as if
				// created fresh in the new company.
				n, err := nextNumber(tx, q.CompanyID, q.ID)
				if err != nil {
					return err
				}
				q.QuestionNumber = n
			}
			return tx.Save(&q).Error
		})
		if err == nil {
			return s.Get(ctx, q.ID)
		}
		lastErr = err
		if !recompany || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Unavailable("could not update question", err)
		}
	}
	return nil, apperr.Conflict("could not assign a question number, please retry: %v", lastErr)
}

// Delete removes a question after recording the pre-delete snapshot in the
// audit trail, and clears its claims and ownership history with it.
func (s *Store) Delete(ctx context.Context, id string, actor *models.User) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(q, actor); err != nil {
		return err
	}

	snapshot := map[string]any{
		"question_number": q.QuestionNumber,
		"company_id":      q.CompanyID,
		"type":            q.Type,
		"month":           q.Month,
		"year":            q.Year,
		"question":        q.Question,
		"suggestions":     q.Suggestions,
	}
	if q.Company != nil {
		snapshot["company"] = q.Company.Name
	}
	s.audit.Record(activity.Entry{
		Actor:       actor,
		Action:      activity.ActionQuestionDelete,
		TargetType:  "question",
		TargetID:    q.ID,
		TargetInfo:  snapshot,
		Description: "deleted question #" + strconv.Itoa(q.QuestionNumber),
	})

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Claim{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.OwnershipTransfer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, "id = ?", id).Error
	})
}

func (s *Store) Get(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("SubmittedBy").
		Preload("Claims.User").
		First(&q, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}
	return &q, nil
}

// ListMine returns the actor's own submissions, newest first.
func (s *Store) ListMine(ctx context.Context, userID string) ([]models.Question, error) {
	var qs []models.Question
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("SubmittedBy").
		Where("submitted_by_id = ?", userID).
		Order("created_at desc").
		Find(&qs).Error
	return qs, err
}

// ToggleVisited flips the actor's visited mark and reports the new state.
func (s *Store) ToggleVisited(ctx context.Context, userID, questionID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&models.VisitedQuestion{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	mark := models.VisitedQuestion{UserID: userID, QuestionID: questionID}
	if err := s.db.WithContext(ctx).Create(&mark).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) VisitedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.VisitedQuestion{}).
		Where("user_id = ?", userID).
		Pluck("question_id", &ids).Error
	return ids, err
}

// authorizeMutation enforces the single-owner model: the recorded owner or an
// admin may mutate. Anonymous questions have no owner and are admin-only.
func authorizeMutation(q *models.Question, actor *models.User) error {
	if actor == nil {
		return apperr.Unauthorized("authentication required")
	}
	if actor.IsAdmin() {
		return nil
	}
	if q.SubmittedByID != nil && *q.SubmittedByID == actor.ID {
		return nil
	}
	return apperr.Forbidden("not authorized to modify this question")
}
