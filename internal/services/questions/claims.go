package questions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

// Claim records that userID experienced this question. At most one claim per
// (question, user); the composite primary key makes the insert the check.
func (s *Store) Claim(ctx context.Context, questionID, userID string) (*models.Question, error) {
	if err := s.requireQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	claim := models.Claim{QuestionID: questionID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("question already claimed")
		}
		return nil, apperr.Unavailable("could not record claim", err)
	}
	return s.Get(ctx, questionID)
}

func (s *Store) Unclaim(ctx context.Context, questionID, userID string) (*models.Question, error) {
	if err := s.requireQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).
		Where("question_id = ? AND user_id = ?", questionID, userID).
		Delete(&models.Claim{})
	if res.Error != nil {
		return nil, apperr.Unavailable("could not remove claim", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Validation("question is not claimed")
	}
	return s.Get(ctx, questionID)
}

// AdminAddClaim attaches a claim on behalf of an arbitrary user, bypassing
// the self-service restriction. The target must exist.
func (s *Store) AdminAddClaim(ctx context.Context, questionID, targetUserID string) (*models.Question, error) {
	if err := s.requireUser(ctx, targetUserID); err != nil {
		return nil, err
	}
	return s.Claim(ctx, questionID, targetUserID)
}

func (s *Store) AdminRemoveClaim(ctx context.Context, questionID, targetUserID string) (*models.Question, error) {
	if err := s.requireUser(ctx, targetUserID); err != nil {
		return nil, err
	}
	return s.Unclaim(ctx, questionID, targetUserID)
}

func (s *Store) CountClaimsByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Claim{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (s *Store) requireQuestion(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Unavailable("store unavailable", err)
	}
	if n == 0 {
		return apperr.NotFound("question not found")
	}
	return nil
}

func (s *Store) requireUser(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Unavailable("store unavailable", err)
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
