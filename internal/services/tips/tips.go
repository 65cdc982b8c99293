// Package tips holds company discussion tips. Records are flat and
// parent-referencing; the reply tree is assembled at read time by a
// map-then-link pass, never kept as a recursive object graph.
package tips

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
	"prepvault/internal/services/sanitize"
)

type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg}
}

// Node is one tip with its assembled replies, newest first.
type Node struct {
	models.CompanyTip
	Replies []*Node `json:"replies"`
}

// Tree returns all of a company's tips as root nodes with nested replies.
func (s *Service) Tree(ctx context.Context, companyID string) ([]*Node, error) {
	var rows []models.CompanyTip
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Unavailable("store unavailable", err)
	}

	byID := make(map[string]*Node, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &Node{CompanyTip: rows[i], Replies: []*Node{}}
	}
	roots := []*Node{}
	for i := range rows {
		n := byID[rows[i].ID]
		if rows[i].ParentTipID != nil {
			if parent, ok := byID[*rows[i].ParentTipID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	for _, n := range byID {
		sort.Slice(n.Replies, func(i, j int) bool {
			return n.Replies[i].CreatedAt.After(n.Replies[j].CreatedAt)
		})
	}
	return roots, nil
}

// Create adds a root tip or a reply. A reply's parent must belong to the same
// company.
func (s *Service) Create(ctx context.Context, companyID, authorID, content string, parentTipID *string) (*models.CompanyTip, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", companyID).Count(&n).Error; err != nil {
		return nil, apperr.Unavailable("store unavailable", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("company not found")
	}
	if parentTipID != nil {
		var parent models.CompanyTip
		if err := s.db.WithContext(ctx).First(&parent, "id = ?", *parentTipID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("parent tip not found")
			}
			return nil, apperr.Unavailable("store unavailable", err)
		}
		if parent.CompanyID != companyID {
			return nil, apperr.Validation("parent tip belongs to a different company")
		}
	}
	tip := models.CompanyTip{
		CompanyID:   companyID,
		AuthorID:    authorID,
		ParentTipID: parentTipID,
		Content:     sanitize.HTML(content),
	}
	if err := s.db.WithContext(ctx).Create(&tip).Error; err != nil {
		return nil, apperr.Unavailable("could not create tip", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(&tip, "id = ?", tip.ID).Error; err != nil {
		return nil, apperr.Unavailable("store unavailable", err)
	}
	return &tip, nil
}

func (s *Service) Update(ctx context.Context, id string, actor *models.User, content string) (*models.CompanyTip, error) {
	tip, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeTip(tip, actor); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	tip.Content = sanitize.HTML(content)
	if err := s.db.WithContext(ctx).Save(tip).Error; err != nil {
		return nil, apperr.Unavailable("could not update tip", err)
	}
	if err := s.db.WithContext(ctx).Preload("Author").First(tip, "id = ?", tip.ID).Error; err != nil {
		return nil, apperr.Unavailable("store unavailable", err)
	}
	return tip, nil
}

// Delete removes a tip and its whole reply subtree, walking the flat records
// level by level.
func (s *Service) Delete(ctx context.Context, id string, actor *models.User) error {
	tip, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeTip(tip, actor); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doomed := []string{id}
		frontier := []string{id}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&models.CompanyTip{}).
				Where("parent_tip_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			doomed = append(doomed, children...)
			frontier = children
		}
		return tx.Delete(&models.CompanyTip{}, "id IN ?", doomed).Error
	})
}

func (s *Service) get(ctx context.Context, id string) (*models.CompanyTip, error) {
	var tip models.CompanyTip
	if err := s.db.WithContext(ctx).First(&tip, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("tip not found")
		}
		return nil, apperr.Unavailable("store unavailable", err)
	}
	return &tip, nil
}

func authorizeTip(tip *models.CompanyTip, actor *models.User) error {
	if actor == nil {
		return apperr.Unauthorized("authentication required")
	}
	if actor.IsAdmin() || tip.AuthorID == actor.ID {
		return nil
	}
	return apperr.Forbidden("not authorized to modify this tip")
}
