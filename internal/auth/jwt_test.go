package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"prepvault/internal/models"
	"prepvault/internal/testutil"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := Sign("user-123")
	require.NoError(t, err)

	sub, err := Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", sub)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	token, err := Sign("user-123")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-b")
	_, err = Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRES_IN", "-1h")

	token, err := Sign("user-123")
	require.NoError(t, err)

	_, err = Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := Verify("not.a.token")
	require.Error(t, err)
}

func TestJWTAuthAttachesStoredUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRES_IN", "")
	db := testutil.NewDB(t)
	u := testutil.NewUser(t, db, models.RoleUser)

	token, err := Sign(u.ID)
	require.NoError(t, err)

	var seen *models.User
	h := JWTAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, u.ID, seen.ID)
	require.Equal(t, u.EnrollmentNumber, seen.EnrollmentNumber)
}

func TestJWTAuthRejections(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testutil.NewDB(t)

	h := JWTAuth(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	// No header.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token for a deleted user.
	token, err := Sign("no-such-user")
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	cases := []struct {
		role       string
		admin      int
		superadmin int
	}{
		{models.RoleUser, http.StatusForbidden, http.StatusForbidden},
		{models.RoleAdmin, http.StatusOK, http.StatusForbidden},
		{models.RoleSuperadmin, http.StatusOK, http.StatusOK},
	}
	for _, tc := range cases {
		u := &models.User{ID: "u", Role: tc.role}
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(WithUser(req.Context(), u))

		rec := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(rec, req)
		require.Equal(t, tc.admin, rec.Code, tc.role)

		rec = httptest.NewRecorder()
		RequireSuperadmin(ok).ServeHTTP(rec, req)
		require.Equal(t, tc.superadmin, rec.Code, tc.role)
	}
}
