package identity

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/models"
)

// Service owns the user records behind resolved identities.
type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
	// superAdminEnrollment is the single enrollment number that is always
	// elevated to superadmin. Not user-settable.
	superAdminEnrollment string
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger, superAdminEnrollment string) *Service {
	return &Service{db: db, lg: lg, superAdminEnrollment: superAdminEnrollment}
}

// Upsert creates the user on first login and refreshes profile fields on every
// later one. Role survives updates, except for the superadmin invariant which
// is re-applied on each call.
func (s *Service) Upsert(ctx context.Context, p Profile) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "enrollment_number = ?", p.EnrollmentNumber).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		u = models.User{
			EnrollmentNumber: p.EnrollmentNumber,
			FullName:         p.FullName,
			DisplayPicture:   p.DisplayPicture,
			Branch:           p.Branch,
			Email:            p.Email,
			Role:             models.RoleUser,
		}
		s.applySuperadmin(&u)
		if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, err
		}
		s.lg.Infow("user created", "enrollment", u.EnrollmentNumber, "role", u.Role)
		return &u, nil
	case err != nil:
		return nil, err
	}

	u.FullName = p.FullName
	u.DisplayPicture = p.DisplayPicture
	u.Branch = p.Branch
	u.Email = p.Email
	s.applySuperadmin(&u)
	if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) applySuperadmin(u *models.User) {
	if s.superAdminEnrollment != "" && u.EnrollmentNumber == s.superAdminEnrollment {
		u.Role = models.RoleSuperadmin
	}
}
