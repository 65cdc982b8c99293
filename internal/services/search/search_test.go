package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
	"prepvault/internal/testutil"
)

type fixture struct {
	db     *gorm.DB
	engine *Engine
	google *models.Company
	amazon *models.Company
	owner  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{
		db:     db,
		engine: NewEngine(db),
		google: testutil.NewCompany(t, db, "Google"),
		amazon: testutil.NewCompany(t, db, "Amazon"),
		owner:  testutil.NewUser(t, db, models.RoleUser),
	}
}

func (f *fixture) addQuestion(t *testing.T, company *models.Company, number int, text string, opts ...func(*models.Question)) *models.Question {
	t.Helper()
	q := &models.Question{
		CompanyID:      company.ID,
		QuestionNumber: number,
		Type:           models.QuestionTypeInterview,
		Month:          3,
		Year:           2025,
		Question:       text,
		SubmittedByID:  &f.owner.ID,
	}
	for _, opt := range opts {
		opt(q)
	}
	require.NoError(t, f.db.Create(q).Error)
	return q
}

func TestFreeTextTiering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Body mentions Google but belongs to Amazon: tier 3.
	bodyMatch := f.addQuestion(t, f.amazon, 1, "How does Google rank pages?")
	// Company name matches: tier 1.
	companyMatch := f.addQuestion(t, f.google, 1, "Reverse a linked list.")
	// Owner name matches: tier 2.
	namedOwner := testutil.NewUser(t, f.db, models.RoleUser)
	namedOwner.FullName = "Googly Sharma"
	require.NoError(t, f.db.Save(namedOwner).Error)
	ownerMatch := f.addQuestion(t, f.amazon, 2, "Design a cache.", func(q *models.Question) {
		q.SubmittedByID = &namedOwner.ID
	})
	// No match anywhere: excluded.
	f.addQuestion(t, f.amazon, 3, "Implement quicksort.")

	items, total, err := f.engine.Search(ctx, Params{FreeText: "googl"})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	require.Equal(t, companyMatch.ID, items[0].ID)
	require.Equal(t, ownerMatch.ID, items[1].ID)
	require.Equal(t, bodyMatch.ID, items[2].ID)
}

func TestFreeTextIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, f.google, 1, "Explain MapReduce.")

	items, total, err := f.engine.Search(context.Background(), Params{FreeText: "MAPREDUCE"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)
}

func TestFiltersCombine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addQuestion(t, f.google, 1, "q one")
	f.addQuestion(t, f.google, 2, "q two", func(q *models.Question) { q.Type = models.QuestionTypeOA })
	f.addQuestion(t, f.google, 3, "q three", func(q *models.Question) { q.Year = 2024 })
	f.addQuestion(t, f.amazon, 1, "q four")

	items, total, err := f.engine.Search(ctx, Params{
		CompanyID: f.google.ID,
		Type:      models.QuestionTypeInterview,
		Year:      2025,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "q one", items[0].Question)
}

func TestSortByCompanyName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addQuestion(t, f.google, 1, "at google")
	f.addQuestion(t, f.amazon, 1, "at amazon")

	items, _, err := f.engine.Search(ctx, Params{SortBy: "company", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "at amazon", items[0].Question)
	require.Equal(t, "at google", items[1].Question)
}

func TestSortValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.engine.Search(ctx, Params{SortBy: "evil; DROP TABLE"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = f.engine.Search(ctx, Params{SortOrder: "sideways"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		f.addQuestion(t, f.google, i, "question body")
	}

	items, total, err := f.engine.Search(ctx, Params{
		SortBy: "questionNumber", SortOrder: "asc",
		Page: 2, PageSize: 2,
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	require.Equal(t, 3, items[0].QuestionNumber)
	require.Equal(t, 4, items[1].QuestionNumber)

	// Past the last page: empty page, same total.
	items, total, err = f.engine.Search(ctx, Params{Page: 4, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Empty(t, items)
}

func TestAnonymousOwnerDoesNotBreakSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addQuestion(t, f.google, 1, "anonymous submission", func(q *models.Question) {
		q.SubmittedByID = nil
	})

	items, total, err := f.engine.Search(ctx, Params{FreeText: "anonymous"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.Nil(t, items[0].SubmittedBy)
}
