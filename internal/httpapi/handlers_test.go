package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"construction-platform/internal/apierror"
	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/config"
	"construction-platform/internal/rbac"
	"construction-platform/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	r      *gin.Engine
	h      *Handlers
	repo   *users.MemoryRepo
	events *audit.MemoryRepo
	tokens *auth.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:      "test-secret",
		JWTIssuer:      "construction-management",
		JWTAudience:    "construction-management-api",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	repo := users.NewMemoryRepo()
	events := audit.NewMemoryRepo()
	h := &Handlers{
		Users:  repo,
		Tokens: tokens,
		Hasher: auth.NewPasswordHasher(bcrypt.MinCost),
		Audit:  audit.NewService(events),
	}
	authn := auth.NewAuthenticator(tokens, auth.NewResolver(repo))

	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", authn.OptionalAuth(), h.Health)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", authn.Authenticate(), h.Me)
	api.POST("/auth/logout", authn.Authenticate(), h.Logout)
	api.PUT("/auth/password", authn.Authenticate(), h.ChangePassword)
	api.PATCH("/users/:id/status", authn.Authenticate(), rbac.Authorize(rbac.AdminOnly...), h.SetUserStatus)

	return &env{r: r, h: h, repo: repo, events: events, tokens: tokens}
}

func (e *env) seed(t *testing.T, email, password string, role users.Role, active bool) users.User {
	t.Helper()
	digest, err := e.h.Hasher.Hash(password)
	require.NoError(t, err)
	u, err := e.repo.Create(context.Background(), users.User{
		Email: email, Name: "Seeded", Role: role, PasswordHash: digest, IsActive: active,
	})
	require.NoError(t, err)
	return u
}

func (e *env) token(t *testing.T, u users.User) string {
	t.Helper()
	tok, err := e.tokens.IssueAccessToken(auth.TokenClaims{UserID: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(t, err)
	return tok
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Code    apierror.Code   `json:"code"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Fields  []string        `json:"fields"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "New.Hire@Site.io", "password": "hardhat-2026", "name": "New Hire",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, "new.hire@site.io", resp.User.Email)
	assert.Equal(t, users.RoleWorker, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.EqualValues(t, 3600, resp.ExpiresIn)
	assert.NotContains(t, w.Body.String(), "hardhat-2026")
	assert.NotContains(t, w.Body.String(), "$2a$")

	claims, err := e.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	assert.Len(t, e.events.OfType(audit.EventUserRegistered), 1)

	dup := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "new.hire@site.io", "password": "another-pass", "name": "Again",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, apierror.CodeConflict, decode(t, dup).Code)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "not-an-email", "password": "short", "name": "N",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, apierror.CodeValidation, body.Code)
	assert.ElementsMatch(t, []string{"Email", "Password", "Name"}, body.Fields)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	u := e.seed(t, "pm@site.io", "correct-horse", users.RoleManager, true)
	e.seed(t, "gone@site.io", "correct-horse", users.RoleWorker, false)

	t.Run("success", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "PM@site.io", "password": "correct-horse"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp tokenResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Equal(t, u.ID, resp.User.ID)
		claims, err := e.tokens.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, users.RoleManager, claims.Role)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "pm@site.io", "password": "nope-nope"})
		unknown := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "who@site.io", "password": "nope-nope"})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
		assert.Equal(t, apierror.CodeInvalidCredentials, decode(t, wrong).Code)
	})

	t.Run("inactive", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "gone@site.io", "password": "correct-horse"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apierror.CodeInvalidUser, decode(t, w).Code)
	})

	assert.Len(t, e.events.OfType(audit.EventLoginSucceeded), 1)
	assert.Len(t, e.events.OfType(audit.EventLoginFailed), 3)
}

func TestMeAndLogout(t *testing.T) {
	e := newEnv(t)
	u := e.seed(t, "crew@site.io", "correct-horse", users.RoleWorker, true)
	tok := e.token(t, u)

	w := e.do(http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got users.User
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Seeded", got.Name)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/auth/logout", tok, nil).Code)

	// Stateless tokens remain usable after logout.
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/auth/me", tok, nil).Code)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	u := e.seed(t, "crew@site.io", "correct-horse", users.RoleWorker, true)
	tok := e.token(t, u)

	w := e.do(http.MethodPut, "/api/auth/password", tok, gin.H{"currentPassword": "wrong-one", "newPassword": "battery-staple"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierror.CodeInvalidCredentials, decode(t, w).Code)

	w = e.do(http.MethodPut, "/api/auth/password", tok, gin.H{"currentPassword": "correct-horse", "newPassword": "battery-staple"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "crew@site.io", "password": "correct-horse"}).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "crew@site.io", "password": "battery-staple"}).Code)
	assert.Len(t, e.events.OfType(audit.EventPasswordChanged), 1)
}

func TestSetUserStatus(t *testing.T) {
	e := newEnv(t)
	admin := e.seed(t, "admin@site.io", "correct-horse", users.RoleAdmin, true)
	worker := e.seed(t, "crew@site.io", "correct-horse", users.RoleWorker, true)
	adminTok, workerTok := e.token(t, admin), e.token(t, worker)

	t.Run("worker is forbidden", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/api/users/"+admin.ID+"/status", workerTok, gin.H{"isActive": false})
		require.Equal(t, http.StatusForbidden, w.Code)
		var body apierror.Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []string{"ADMIN"}, body.Required)
		assert.Equal(t, "WORKER", body.Current)
	})

	t.Run("admin deactivates worker", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/api/users/"+worker.ID+"/status", adminTok, gin.H{"isActive": false})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		// The worker's outstanding token stops working immediately.
		me := e.do(http.MethodGet, "/api/auth/me", workerTok, nil)
		assert.Equal(t, http.StatusUnauthorized, me.Code)
		assert.Equal(t, apierror.CodeInvalidUser, decode(t, me).Code)
	})

	t.Run("missing flag", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/api/users/"+worker.ID+"/status", adminTok, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("self", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/api/users/"+admin.ID+"/status", adminTok, gin.H{"isActive": false})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/api/users/nope/status", adminTok, gin.H{"isActive": true})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apierror.CodeNotFound, decode(t, w).Code)
	})

	assert.Len(t, e.events.OfType(audit.EventUserStatusChanged), 1)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	u := e.seed(t, "crew@site.io", "correct-horse", users.RoleWorker, true)

	for _, tc := range []struct {
		token string
		want  bool
	}{
		{token: "", want: false},
		{token: "garbage", want: false},
		{token: e.token(t, u), want: true},
	} {
		w := e.do(http.MethodGet, "/api/health", tc.token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Status        string `json:"status"`
			Authenticated bool   `json:"authenticated"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "OK", body.Status)
		assert.Equal(t, tc.want, body.Authenticated)
	}
}
