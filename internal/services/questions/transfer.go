package questions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

// Transfer reassigns a question's owner. The new owner is addressed by
// enrollment number, the external-facing handle. The history append and the
// owner change commit together or not at all.
func (s *Store) Transfer(ctx context.Context, questionID string, actor *models.User, newOwnerEnrollment string) (*models.Question, error) {
	if actor == nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins may transfer question ownership")
	}
	if newOwnerEnrollment == "" {
		return nil, apperr.Validation("enrollment number is required")
	}

	var q models.Question
	if err := s.db.WithContext(ctx).First(&q, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}

	var newOwner models.User
	if err := s.db.WithContext(ctx).First(&newOwner, "enrollment_number = ?", newOwnerEnrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no user with enrollment number %s", newOwnerEnrollment)
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}

	if q.SubmittedByID != nil && *q.SubmittedByID == newOwner.ID {
		return nil, apperr.Conflict("question already belongs to %s", newOwnerEnrollment)
	}

	entry := models.OwnershipTransfer{
		QuestionID:      q.ID,
		PreviousOwnerID: q.SubmittedByID,
		TransferredToID: newOwner.ID,
		TransferredByID: actor.ID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ?", q.ID).
			Update("submitted_by_id", newOwner.ID).Error
	})
	if err != nil {
		return nil, apperr.Unavailable("could not transfer question", err)
	}
	s.lg.Infow("question ownership transferred",
		"question", q.ID, "to", newOwner.EnrollmentNumber, "by", actor.EnrollmentNumber)
	return s.Get(ctx, q.ID)
}

// History returns a question's ownership trail, oldest first.
func (s *Store) History(ctx context.Context, questionID string) ([]models.OwnershipTransfer, error) {
	var entries []models.OwnershipTransfer
	err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	return entries, err
}
