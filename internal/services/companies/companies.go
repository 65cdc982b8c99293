// Package companies is the directory of named entities questions attach to.
package companies

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
	"prepvault/internal/services/sanitize"
)

type Directory struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewDirectory(db *gorm.DB, lg *zap.SugaredLogger) *Directory {
	return &Directory{db: db, lg: lg}
}

// List returns companies ordered by name, optionally narrowed by a
// case-insensitive substring match.
func (d *Directory) List(ctx context.Context, search string, limit int) ([]models.Company, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	q := d.db.WithContext(ctx).Model(&models.Company{})
	if search != "" {
		q = q.Where("name_key LIKE ?", "%"+strings.ToLower(strings.TrimSpace(search))+"%")
	}
	var cs []models.Company
	err := q.Order("name asc").Limit(limit).Find(&cs).Error
	return cs, err
}

func (d *Directory) Get(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := d.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}
	return &c, nil
}

// Create enforces case-insensitive name uniqueness via the lowercased name
// key's unique index, so two concurrent creates of "Acme"/"ACME" cannot both
// land.
func (d *Directory) Create(ctx context.Context, name string, addedByID string, logoURL *string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("company name is required")
	}
	c := models.Company{
		Name:      name,
		NameKey:   strings.ToLower(name),
		Logo:      logoURL,
		AddedByID: &addedByID,
		Roles:     models.JSONB("[]"),
	}
	if err := d.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("company %q already exists", name)
		}
		return nil, apperr.Unavailable("could not create company", err)
	}
	d.lg.Infow("company created", "name", name, "id", c.ID)
	return &c, nil
}

func (d *Directory) UpdateLogo(ctx context.Context, id, logoURL string) (*models.Company, error) {
	c, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Logo = &logoURL
	if err := d.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, apperr.Unavailable("could not update company", err)
	}
	return c, nil
}

// DetailsInput patches description and/or the embedded role postings.
type DetailsInput struct {
	Description *string
	Roles       []models.CompanyRole
	RolesSet    bool
}

func (d *Directory) UpdateDetails(ctx context.Context, id string, in DetailsInput) (*models.Company, error) {
	c, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Description != nil {
		c.Description = sanitize.HTMLPtr(in.Description)
	}
	if in.RolesSet {
		for i := range in.Roles {
			if strings.TrimSpace(in.Roles[i].RoleName) == "" {
				return nil, apperr.Validation("role name is required")
			}
			if err := validateBranches(in.Roles[i].HiringFor); err != nil {
				return nil, err
			}
		}
		c.Roles = models.ToJSONB(in.Roles)
		if c.Roles == nil {
			c.Roles = models.JSONB("[]")
		}
	}
	if err := d.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, apperr.Unavailable("could not update company", err)
	}
	return c, nil
}

func validateBranches(h models.HiringBranches) error {
	if err := checkBranchList(h.UG, models.UGBranches, "ug"); err != nil {
		return err
	}
	if err := checkBranchList(h.PG, models.PGBranches, "pg"); err != nil {
		return err
	}
	return checkBranchList(h.PhD, models.PhDBranches, "phd")
}

func checkBranchList(got, allowed []string, level string) error {
	for _, b := range got {
		found := false
		for _, a := range allowed {
			if b == a {
				found = true
				break
			}
		}
		if !found {
			return apperr.Validation("unknown %s branch %q", level, b)
		}
	}
	return nil
}
