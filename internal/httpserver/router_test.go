package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/auth"
	"prepvault/internal/identity"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/companies"
	"prepvault/internal/services/questions"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/services/search"
	"prepvault/internal/services/tips"
	"prepvault/internal/testutil"
)

type env struct {
	db      *gorm.DB
	srv     *httptest.Server
	company *models.Company
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("JWT_SECRET", "router-test-secret")

	db := testutil.NewDB(t)
	lg := zap.NewNop().Sugar()
	audit := activity.NewRecorder(db, lg)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	router := NewRouter(Deps{
		DB:        db,
		Log:       lg,
		Identity:  identity.NewService(db, lg, ""),
		Questions: questions.NewStore(db, lg, audit),
		Search:    search.NewEngine(db),
		Companies: companies.NewDirectory(db, lg),
		Tips:      tips.NewService(db, lg),
		Limiter:   ratelimit.NewLimiter(ratelimit.NewRedisCounter(rdb), lg),
		Audit:     audit,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{db: db, srv: srv, company: testutil.NewCompany(t, db, "Google")}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *env) login(t *testing.T, role string) (*models.User, string) {
	t.Helper()
	u := testutil.NewUser(t, e.db, role)
	token, err := auth.Sign(u.ID)
	require.NoError(t, err)
	return u, token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func questionBody(companyID string) map[string]any {
	return map[string]any{
		"company":  companyID,
		"type":     "interview",
		"month":    4,
		"year":     2025,
		"question": "Design a URL shortener.",
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicListIsOpen(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "GET", "/api/questions", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	require.Contains(t, body, "questions")
	require.Contains(t, body, "pagination")
}

func TestCreateQuestionRequiresAuth(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, "POST", "/api/questions", "", questionBody(e.company.ID))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateQuestionFlow(t *testing.T) {
	e := newEnv(t)
	_, token := e.login(t, models.RoleUser)

	resp := e.do(t, "POST", "/api/questions", token, questionBody(e.company.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
	require.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))

	q := decode[models.Question](t, resp)
	require.Equal(t, 1, q.QuestionNumber)
	require.NotNil(t, q.Company)

	got := e.do(t, "GET", "/api/questions/"+q.ID, "", nil)
	require.Equal(t, http.StatusOK, got.StatusCode)
}

func TestCreateQuestionRateLimited(t *testing.T) {
	e := newEnv(t)
	_, token := e.login(t, models.RoleUser)

	for i := 0; i < 10; i++ {
		resp := e.do(t, "POST", "/api/questions", token, questionBody(e.company.ID))
		require.Equal(t, http.StatusCreated, resp.StatusCode, fmt.Sprintf("request %d", i+1))
	}

	resp := e.do(t, "POST", "/api/questions", token, questionBody(e.company.ID))
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))

	body := decode[map[string]any](t, resp)
	require.Contains(t, body["message"], "per day")
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	e := newEnv(t)
	_, userToken := e.login(t, models.RoleUser)
	_, adminToken := e.login(t, models.RoleAdmin)
	_, superToken := e.login(t, models.RoleSuperadmin)

	resp := e.do(t, "GET", "/api/logs", userToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, "GET", "/api/logs", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, "GET", "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, "GET", "/api/admin/users", superToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransferEndpoint(t *testing.T) {
	e := newEnv(t)
	owner, ownerToken := e.login(t, models.RoleUser)
	_, adminToken := e.login(t, models.RoleAdmin)
	newOwner, _ := e.login(t, models.RoleUser)

	resp := e.do(t, "POST", "/api/questions", ownerToken, questionBody(e.company.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	q := decode[models.Question](t, resp)
	require.Equal(t, owner.ID, *q.SubmittedByID)

	transferBody := map[string]string{"enrollment_number": newOwner.EnrollmentNumber}

	resp = e.do(t, "PUT", "/api/admin/questions/"+q.ID+"/transfer", ownerToken, transferBody)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, "PUT", "/api/admin/questions/"+q.ID+"/transfer", adminToken, transferBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[models.Question](t, resp)
	require.Equal(t, newOwner.ID, *moved.SubmittedByID)

	resp = e.do(t, "GET", "/api/admin/questions/"+q.ID+"/history", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitStatusEndpoint(t *testing.T) {
	e := newEnv(t)
	_, token := e.login(t, models.RoleUser)

	resp := e.do(t, "GET", "/api/limits?action=companies", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[ratelimit.Status](t, resp)
	require.Equal(t, "companies", st.Action)
	require.Equal(t, 5, st.Limit)

	resp = e.do(t, "GET", "/api/limits?action=bogus", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
