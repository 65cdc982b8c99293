// Package search joins questions to companies and owners, applies filter
// predicates, and ranks free-text matches into relevance tiers.
package search

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

// Tier values: lower is more relevant. The tier classifier and the free-text
// filter predicate must cover the identical field set, so every row passing
// the filter lands in tiers 1..3; tierNone only exists as a guard.
const (
	tierCompanyName = 1
	tierOwnerName   = 2
	tierBody        = 3
	tierNone        = 4
)

// matchFields is the shared OR predicate; the same four comparisons, in tier
// order, drive the CASE classifier below.
const matchFields = "LOWER(companies.name) LIKE ? " +
	"OR LOWER(COALESCE(users.full_name, '')) LIKE ? " +
	"OR LOWER(questions.question) LIKE ? " +
	"OR LOWER(COALESCE(questions.suggestions, '')) LIKE ?"

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Params describe one search request. Zero-valued filters impose no
// constraint.
type Params struct {
	CompanyID string
	Type      string
	Year      int
	FreeText  string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

var sortColumns = map[string]string{
	"createdAt":      "questions.created_at",
	"year":           "questions.year",
	"month":          "questions.month",
	"type":           "questions.type",
	"questionNumber": "questions.question_number",
	// company sorts by the joined display name, not the id
	"company": "companies.name",
}

// Search returns one page of matches plus the total count over the filtered
// and searched set before pagination.
func (e *Engine) Search(ctx context.Context, p Params) ([]models.Question, int64, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	sortCol, ok := sortColumns[p.SortBy]
	if p.SortBy == "" {
		sortCol = "questions.created_at"
	} else if !ok {
		return nil, 0, apperr.Validation("unknown sort field %q", p.SortBy)
	}
	dir := "DESC"
	switch strings.ToLower(p.SortOrder) {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return nil, 0, apperr.Validation("sort order must be asc or desc")
	}

	var total int64
	if err := e.base(ctx, p).Distinct("questions.id").Count(&total).Error; err != nil {
		return nil, 0, apperr.Unavailable("search unavailable", err)
	}

	q := e.base(ctx, p).
		Preload("Company").
		Preload("SubmittedBy").
		Preload("Claims.User")

	if p.FreeText != "" {
		pat := pattern(p.FreeText)
		tierCase := "CASE " +
			"WHEN LOWER(companies.name) LIKE ? THEN 1 " +
			"WHEN LOWER(COALESCE(users.full_name, '')) LIKE ? THEN 2 " +
			"WHEN LOWER(questions.question) LIKE ? OR LOWER(COALESCE(questions.suggestions, '')) LIKE ? THEN 3 " +
			"ELSE 4 END"
		q = q.Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                tierCase + " ASC, " + sortCol + " " + dir,
				Vars:               []interface{}{pat, pat, pat, pat},
				WithoutParentheses: true,
			},
		})
	} else {
		q = q.Order(sortCol + " " + dir)
	}

	var items []models.Question
	err := q.Offset((p.Page - 1) * p.PageSize).
		Limit(p.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, apperr.Unavailable("search unavailable", err)
	}
	return items, total, nil
}

// base builds the filtered, joined query both the count and the page read
// share.
func (e *Engine) base(ctx context.Context, p Params) *gorm.DB {
	q := e.db.WithContext(ctx).Model(&models.Question{}).
		Joins("JOIN companies ON companies.id = questions.company_id").
		Joins("LEFT JOIN users ON users.id = questions.submitted_by_id")
	if p.CompanyID != "" {
		q = q.Where("questions.company_id = ?", p.CompanyID)
	}
	if p.Type != "" {
		q = q.Where("questions.type = ?", p.Type)
	}
	if p.Year != 0 {
		q = q.Where("questions.year = ?", p.Year)
	}
	if p.FreeText != "" {
		pat := pattern(p.FreeText)
		q = q.Where(matchFields, pat, pat, pat, pat)
	}
	return q
}

func pattern(freeText string) string {
	return "%" + strings.ToLower(strings.TrimSpace(freeText)) + "%"
}
