package companies

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
	"prepvault/internal/testutil"
)

func newTestDirectory(t *testing.T) (*Directory, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewDirectory(db, zap.NewNop().Sugar()), testutil.NewUser(t, db, models.RoleUser)
}

func TestCreateAndGet(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	c, err := d.Create(ctx, "  Stripe  ", u.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "Stripe", c.Name)
	require.Equal(t, u.ID, *c.AddedByID)

	got, err := d.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Stripe", got.Name)

	_, err = d.Get(ctx, "00000000-0000-0000-0000-000000000000")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateNameRequired(t *testing.T) {
	d, u := newTestDirectory(t)
	_, err := d.Create(context.Background(), "   ", u.ID, nil)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNameUniquenessIsCaseInsensitive(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.Create(ctx, "Acme", u.ID, nil)
	require.NoError(t, err)

	_, err = d.Create(ctx, "ACME", u.ID, nil)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = d.Create(ctx, "acme", u.ID, nil)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListSearchAndOrder(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta Corp", "Alpha Labs", "AlphaSoft"} {
		_, err := d.Create(ctx, name, u.ID, nil)
		require.NoError(t, err)
	}

	all, err := d.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Alpha Labs", all[0].Name)

	hits, err := d.List(ctx, "ALPHA", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestUpdateLogo(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	c, err := d.Create(ctx, "Acme", u.ID, nil)
	require.NoError(t, err)
	require.Nil(t, c.Logo)

	got, err := d.UpdateLogo(ctx, c.ID, "https://img.example.com/acme.png")
	require.NoError(t, err)
	require.Equal(t, "https://img.example.com/acme.png", *got.Logo)
}

func TestUpdateDetails(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	c, err := d.Create(ctx, "Acme", u.ID, nil)
	require.NoError(t, err)

	desc := `Great <script>alert(1)</script>place`
	got, err := d.UpdateDetails(ctx, c.ID, DetailsInput{
		Description: &desc,
		RolesSet:    true,
		Roles: []models.CompanyRole{{
			RoleName:     "SDE Intern",
			TotalStipend: 60000,
			HiringFor:    models.HiringBranches{UG: []string{models.UGBranches[0]}},
		}},
	})
	require.NoError(t, err)
	require.NotContains(t, *got.Description, "<script>")

	var roles []models.CompanyRole
	require.NoError(t, json.Unmarshal(got.Roles, &roles))
	require.Len(t, roles, 1)
	require.Equal(t, "SDE Intern", roles[0].RoleName)
}

func TestUpdateDetailsRejectsUnknownBranch(t *testing.T) {
	d, u := newTestDirectory(t)
	ctx := context.Background()

	c, err := d.Create(ctx, "Acme", u.ID, nil)
	require.NoError(t, err)

	_, err = d.UpdateDetails(ctx, c.ID, DetailsInput{
		RolesSet: true,
		Roles: []models.CompanyRole{{
			RoleName:  "SDE",
			HiringFor: models.HiringBranches{UG: []string{"B.Tech. (Astrology)"}},
		}},
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = d.UpdateDetails(ctx, c.ID, DetailsInput{
		RolesSet: true,
		Roles:    []models.CompanyRole{{RoleName: "  "}},
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
