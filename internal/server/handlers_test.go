package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	consolemw "github.com/pallavilagisetti/admin-control-sub001/internal/middleware"
)

const (
	testRolesClaim = "https://resumatch.io/roles"
	testPermsClaim = "https://resumatch.io/permissions"
)

type routerFixture struct {
	handler  http.Handler
	mock     *auth.MockIssuer
	users    *mockUserRepo
	resumes  *mockResumeRepo
	jobs     *mockJobRepo
	skills   *mockSkillRepo
	payments *mockPaymentRepo
}

// newRouterFixture assembles the full chain: rate limiter, auth gate,
// router, handlers, against in-memory repositories.
func newRouterFixture(t *testing.T, cfg *config.Config) *routerFixture {
	t.Helper()

	expander, err := auth.NewRoleExpander()
	require.NoError(t, err)

	f := &routerFixture{
		mock:     auth.NewMockIssuer("test-secret", "http://localhost:5000", testRolesClaim, testPermsClaim),
		users:    &mockUserRepo{},
		resumes:  &mockResumeRepo{},
		jobs:     &mockJobRepo{},
		skills:   &mockSkillRepo{},
		payments: &mockPaymentRepo{},
	}

	gate, err := consolemw.NewAuthGate(cfg, consolemw.AuthGateDeps{
		Mock:     f.mock,
		Expander: expander,
	})
	require.NoError(t, err)

	limiter := consolemw.NewLimiter(cfg.RateLimit)
	t.Cleanup(limiter.Close)

	f.handler = NewRouter(RouterOptions{
		Cfg:  cfg,
		Mock: f.mock,
		Repos: Repositories{
			Users:    f.users,
			Resumes:  f.resumes,
			Jobs:     f.jobs,
			Skills:   f.skills,
			Payments: f.payments,
		},
		Middleware: []func(http.Handler) http.Handler{limiter.Middleware(), gate},
	})
	return f
}

func devConfig() *config.Config {
	return &config.Config{
		Env: config.EnvDevelopment,
		CORS: config.CORSConfig{
			Origins:     []string{"http://localhost:5173"},
			Credentials: true,
		},
		RateLimit: config.RateLimitConfig{
			GeneralLimit:  60,
			GeneralWindow: time.Minute,
			AuthLimit:     5,
			AuthWindow:    15 * time.Minute,
			UploadLimit:   10,
			UploadWindow:  time.Hour,
		},
	}
}

func prodConfig() *config.Config {
	cfg := devConfig()
	cfg.Env = config.EnvProduction
	return cfg
}

func (f *routerFixture) request(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) tokenFor(t *testing.T, id string, roles ...string) string {
	t.Helper()
	token, err := f.mock.Mint(id, id+"@resumatch.io", id, roles, nil, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListUsers_UnauthenticatedInProduction(t *testing.T) {
	f := newRouterFixture(t, prodConfig())

	rec := f.request(t, http.MethodGet, "/api/users", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Access token required", body["error"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestListUsers_DevBypass(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	f.users.users = []models.User{{ID: "u1", Email: "a@b.c", Status: models.UserStatusActive}}

	rec := f.request(t, http.MethodGet, "/api/users", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["items"], 1)
}

func TestListUsers_PaginationEnvelope(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	for _, id := range []string{"u1", "u2", "u3"} {
		f.users.users = append(f.users.users, models.User{ID: id, Email: id + "@b.c", Status: models.UserStatusActive})
	}

	rec := f.request(t, http.MethodGet, "/api/users?page=2&limit=2", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["items"], 1)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, pagination["page"])
	assert.EqualValues(t, 2, pagination["limit"])
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["totalPages"])
}

func TestGetUser_NotFound(t *testing.T) {
	f := newRouterFixture(t, devConfig())

	rec := f.request(t, http.MethodGet, "/api/users/missing", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestOwnershipRule(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	f.resumes.resumes = []models.Resume{{ID: "r1", UserID: "U1", FileName: "cv.pdf", Status: models.ResumeStatusParsed}}

	t.Run("other user forbidden", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/users/U1/resumes", f.tokenFor(t, "U2", auth.RoleUser), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner allowed", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/users/U1/resumes", f.tokenFor(t, "U1", auth.RoleUser), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["items"], 1)
	})

	t.Run("admin allowed", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/users/U1/resumes", f.tokenFor(t, "U9", auth.RoleAdmin), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestModeratorCannotReadPayments(t *testing.T) {
	f := newRouterFixture(t, devConfig())

	rec := f.request(t, http.MethodGet, "/api/payments", f.tokenFor(t, "m1", auth.RoleModerator), "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Contains(t, body, "required")
	assert.Contains(t, body, "current")
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	seed := func(f *routerFixture, status string) {
		f.users.users = []models.User{{
			ID:           "admin-1",
			Email:        "admin@resumatch.io",
			Name:         "Console Admin",
			PasswordHash: &hashStr,
			Roles:        models.StringList{auth.RoleAdmin},
			Status:       status,
		}}
	}

	t.Run("success issues usable token", func(t *testing.T) {
		f := newRouterFixture(t, devConfig())
		seed(f, models.UserStatusActive)

		rec := f.request(t, http.MethodPost, "/api/login", "",
			`{"email":"admin@resumatch.io","password":"hunter2hunter2"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		token, _ := body["token"].(string)
		require.NotEmpty(t, token)
		assert.NotEmpty(t, body["expiresAt"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "admin@resumatch.io", user["email"])

		whoami := f.request(t, http.MethodGet, "/api/auth/whoami", token, "")
		require.Equal(t, http.StatusOK, whoami.Code)
		assert.Equal(t, "admin-1", decodeBody(t, whoami)["id"])
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newRouterFixture(t, devConfig())
		seed(f, models.UserStatusActive)

		rec := f.request(t, http.MethodPost, "/api/login", "",
			`{"email":"admin@resumatch.io","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["error"])
	})

	t.Run("unknown email indistinguishable", func(t *testing.T) {
		f := newRouterFixture(t, devConfig())
		seed(f, models.UserStatusActive)

		rec := f.request(t, http.MethodPost, "/api/login", "",
			`{"email":"ghost@resumatch.io","password":"whatever"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["error"])
	})

	t.Run("suspended account", func(t *testing.T) {
		f := newRouterFixture(t, devConfig())
		seed(f, models.UserStatusSuspended)

		rec := f.request(t, http.MethodPost, "/api/login", "",
			`{"email":"admin@resumatch.io","password":"hunter2hunter2"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newRouterFixture(t, devConfig())
		rec := f.request(t, http.MethodPost, "/api/login", "", `{"email":"x@y.z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWhoAmIJoinsLinkedAccount(t *testing.T) {
	subject := "auth0|abc123"
	users := &mockUserRepo{users: []models.User{
		{ID: "u1", Email: "admin@resumatch.io", Name: "Admin", Subject: &subject, Status: models.UserStatusActive},
	}}
	h := NewHandlers(RouterOptions{Cfg: devConfig(), Repos: Repositories{Users: users}})

	serve := func(principal auth.Principal) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/whoami", nil)
		req = req.WithContext(auth.SetPrincipal(req.Context(), principal))
		rec := httptest.NewRecorder()
		h.WhoAmI(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody(t, rec)
	}

	t.Run("idp principal with linked account", func(t *testing.T) {
		body := serve(auth.Principal{ID: subject, Email: "admin@resumatch.io", Source: auth.SourceIdP})

		account, ok := body["account"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "u1", account["id"])
		assert.Equal(t, models.UserStatusActive, account["status"])
	})

	t.Run("idp principal without account", func(t *testing.T) {
		body := serve(auth.Principal{ID: "auth0|stranger", Source: auth.SourceIdP})
		assert.NotContains(t, body, "account")
	})

	t.Run("mock principal skips lookup", func(t *testing.T) {
		body := serve(auth.Principal{ID: "u1", Source: auth.SourceMock})
		assert.NotContains(t, body, "account")
	})
}

func TestRefundPayment(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	f.payments.payments = []models.Payment{
		{ID: "p1", UserID: "u1", AmountCents: 4900, Status: models.PaymentStatusSucceeded},
		{ID: "p2", UserID: "u1", AmountCents: 4900, Status: models.PaymentStatusFailed},
	}

	t.Run("succeeded payment refunds", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/payments/p1/refund", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, models.PaymentStatusRefunded, body["status"])
	})

	t.Run("failed payment not refundable", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/payments/p2/refund", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown payment", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/payments/nope/refund", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMetricsAggregates(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	f.users.users = []models.User{
		{ID: "u1", Status: models.UserStatusActive},
		{ID: "u2", Status: models.UserStatusActive},
		{ID: "u3", Status: models.UserStatusSuspended},
	}
	f.payments.payments = []models.Payment{
		{ID: "p1", AmountCents: 4900, Status: models.PaymentStatusSucceeded},
		{ID: "p2", AmountCents: 9900, Status: models.PaymentStatusSucceeded},
		{ID: "p3", AmountCents: 4900, Status: models.PaymentStatusFailed},
	}
	f.skills.skills = []models.Skill{
		{ID: "s1", Name: "Go", UsageCount: 42},
		{ID: "s2", Name: "SQL", UsageCount: 17},
	}

	rec := f.request(t, http.MethodGet, "/api/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	users, ok := body["users"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, users[models.UserStatusActive])
	assert.EqualValues(t, 1, users[models.UserStatusSuspended])
	assert.EqualValues(t, 14800, body["revenueCents"])

	topSkills, ok := body["topSkills"].([]any)
	require.True(t, ok)
	require.Len(t, topSkills, 2)
	first, ok := topSkills[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Go", first["name"])
	assert.EqualValues(t, 42, first["usageCount"])
}

func TestAnalyticsReportCSV(t *testing.T) {
	f := newRouterFixture(t, devConfig())
	f.jobs.jobs = []models.Job{{ID: "j1", Title: "Engineer", Company: "Acme", Status: models.JobStatusOpen}}
	f.skills.skills = []models.Skill{{ID: "s1", Name: "Go", UsageCount: 42}}

	rec := f.request(t, http.MethodGet, "/api/reports/analytics?format=csv", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "analytics-report.csv")
	assert.Contains(t, rec.Body.String(), "jobs,open,1")
	assert.Contains(t, rec.Body.String(), "skills,Go,42")
}

func TestUploadResume(t *testing.T) {
	f := newRouterFixture(t, devConfig())

	rec := f.request(t, http.MethodPost, "/api/resumes/upload", "",
		`{"userId":"u1","title":"Backend CV","fileName":"cv.pdf","sizeBytes":2048}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.resumes.resumes, 1)
	assert.Equal(t, models.ResumeStatusUploaded, f.resumes.resumes[0].Status)

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/resumes/upload", "", `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := newRouterFixture(t, prodConfig())

	rec := f.request(t, http.MethodGet, "/api/health", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.EnvProduction, body["environment"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, body["uptime"])
	assert.Equal(t, "dev", body["version"])
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	f := newRouterFixture(t, prodConfig())

	for _, path := range []string{"/api/health", "/api/users", "/no/such/route"} {
		rec := f.request(t, http.MethodGet, path, "", "")
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"), path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	f := newRouterFixture(t, devConfig())

	rec := f.request(t, http.MethodGet, "/api/nonsense", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "/api/nonsense", body["path"])
}

func TestRateLimitHeadersOnSuccess(t *testing.T) {
	f := newRouterFixture(t, devConfig())

	rec := f.request(t, http.MethodGet, "/api/users", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}
