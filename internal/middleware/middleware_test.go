package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/config"
	"koomia/api/internal/models"
	"koomia/api/internal/repository/memory"
	"koomia/api/internal/response"
	"koomia/api/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	tokens   *security.TokenService
	accounts *memory.AccountStore
	engine   *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := security.NewTokenService(security.TokenSettings{
		AccessSecret:  "a-secret",
		RefreshSecret: "r-secret",
		ResetSecret:   "x-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		ResetTTL:      time.Minute,
	})
	require.NoError(t, err)

	f := &authFixture{tokens: tokens, accounts: memory.NewAccountStore()}
	f.engine = gin.New()
	f.engine.Use(RequestID(), Recovery(zerolog.Nop()))

	authed := f.engine.Group("/", Authenticate(tokens, f.accounts))
	authed.GET("/me", WithPrincipal(func(c *gin.Context, p Principal) {
		response.OK(c, p.Account.Info(), "")
	}))
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) { response.OK(c, nil, "admin") })
	authed.GET("/verified", RequireVerified(), func(c *gin.Context) { response.OK(c, nil, "verified") })
	f.engine.GET("/open", WithPrincipal(func(c *gin.Context, p Principal) { response.OK(c, nil, "") }))
	f.engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	return f
}

func (f *authFixture) account(t *testing.T, mutate func(*models.Account)) (models.Account, string) {
	t.Helper()
	account := models.Account{
		ID:           "acc-" + t.Name(),
		Email:        "ada@x.com",
		Mobile:       "+100000",
		Role:         models.RoleUser,
		RefreshToken: "stored",
	}
	if mutate != nil {
		mutate(&account)
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))

	token, err := f.tokens.Issue(security.PurposeAccess, account.ID, "ada@x.com")
	require.NoError(t, err)
	return account, token
}

func (f *authFixture) get(path, authorization string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	body := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	f := newAuthFixture(t)
	account, token := f.account(t, nil)

	rec, body := f.get("/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, account.ID, data["id"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAuthenticateFailures(t *testing.T) {
	f := newAuthFixture(t)
	_, token := f.account(t, nil)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusBadRequest},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := f.get("/me", tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}

	refresh, err := f.tokens.Issue(security.PurposeRefresh, "acc-"+t.Name(), "ada@x.com")
	require.NoError(t, err)
	rec, _ := f.get("/me", "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh tokens are not access tokens")

	rec, _ = f.get("/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateRejectsStaleAccounts(t *testing.T) {
	t.Run("unknown account", func(t *testing.T) {
		f := newAuthFixture(t)
		token, err := f.tokens.Issue(security.PurposeAccess, "ghost", "ghost@x.com")
		require.NoError(t, err)
		rec, _ := f.get("/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("logged out", func(t *testing.T) {
		f := newAuthFixture(t)
		_, token := f.account(t, func(a *models.Account) { a.RefreshToken = "" })
		rec, _ := f.get("/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("email changed", func(t *testing.T) {
		f := newAuthFixture(t)
		_, token := f.account(t, func(a *models.Account) { a.Email = "new@x.com" })
		rec, _ := f.get("/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("blocked", func(t *testing.T) {
		f := newAuthFixture(t)
		_, token := f.account(t, func(a *models.Account) { a.IsBlocked = true })
		rec, _ := f.get("/me", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGuards(t *testing.T) {
	f := newAuthFixture(t)
	_, token := f.account(t, nil)

	rec, _ := f.get("/admin", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = f.get("/verified", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin := newAuthFixture(t)
	_, adminToken := admin.account(t, func(a *models.Account) { a.Role = models.RoleAdmin })
	rec, _ = admin.get("/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = admin.get("/verified", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code, "administrators skip verification")

	rec, _ = f.get("/open", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecoveryRendersEnvelope(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := f.get("/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error.", body["message"])
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	engine := gin.New()
	engine.POST("/login", RateLimit(config.RateLimitConfig{Enabled: false}, nil, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	engine := gin.New()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, Prefix: "rl"}
	engine.POST("/login", RateLimit(cfg, rdb, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict([]any{int64(0), int64(0), int64(1500)})
	require.NoError(t, err)
	assert.False(t, v.allowed)
	assert.Equal(t, 1500*time.Millisecond, v.retryAfter)

	v, err = parseVerdict([]any{int64(1), "4", int64(0)})
	require.NoError(t, err)
	assert.True(t, v.allowed)
	assert.EqualValues(t, 4, v.remaining)

	_, err = parseVerdict("nope")
	assert.Error(t, err)
}

func TestCORSPreflight(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://shop.example"}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(requestIDHeader, "has space")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.NotEqual(t, "has space", rec.Body.String())
	assert.Len(t, rec.Body.String(), 36)
}
