package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/handler"
	"github.com/iliyamo/account-service/internal/repository"
	"github.com/iliyamo/account-service/internal/service"
	"github.com/iliyamo/account-service/internal/utils"
)

type server struct {
	e   *echo.Echo
	svc *service.AccountService
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := repository.NewMemoryAccountRepo()
	hasher := utils.NewPasswordHasher(utils.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, SaltLen: 16, KeyLen: 32}, 4)
	codec := utils.NewTokenCodec("router-secret", time.Hour)
	svc := service.NewAccountService(store, hasher, nil, zap.NewNop())
	resolver := service.NewIdentityResolver(store, hasher, codec)
	logger := zap.NewNop()

	e := New(Deps{
		Prefix:   "/api/v1",
		Logger:   logger,
		Resolver: resolver,
		Auth:     handler.NewAuthHandler(resolver, codec, svc, logger, time.Second),
		Accounts: handler.NewAccountHandler(svc, logger, time.Second),
		Health:   handler.NewHealthHandler(store, nil, logger, time.Second),
	})
	return &server{e: e, svc: svc}
}

func (s *server) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) login(t *testing.T, name, pw string) string {
	t.Helper()
	form := url.Values{"username": {name}, "password": {pw}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.Equal(t, "Bearer", tok.TokenType)
	return tok.AccessToken
}

func TestAccountLifecycle(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/v1/user", "",
		`{"userName":"alice","firstName":"Alice","lastName":"L","password":"pw1","securityQuestionAnswer":"blue"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var alice struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alice))

	token := s.login(t, "alice", "pw1")

	rec = s.do(http.MethodPost, "/api/v1/login/test-token", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), alice.ID)

	rec = s.do(http.MethodGet, "/api/v1/user/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userName":"alice"`)

	rec = s.do(http.MethodGet, "/api/v1/user", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"The user doesn't have enough privileges"}`, rec.Body.String())

	_, err := s.svc.EnsureAdmin(context.Background(), service.RegisterInput{
		UserName: "root", FirstName: "Root", LastName: "Admin", Password: "rootpw", SecurityAnswer: "x",
	})
	require.NoError(t, err)
	admin := s.login(t, "root", "rootpw")

	rec = s.do(http.MethodGet, "/api/v1/user", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = s.do(http.MethodGet, "/api/v1/user/user-name/alice", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/user/"+alice.ID, admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// alice's token now names an account that no longer exists
	rec = s.do(http.MethodGet, "/api/v1/user/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/login/test-token"},
		{http.MethodGet, "/api/v1/user/me"},
		{http.MethodDelete, "/api/v1/user/me"},
		{http.MethodGet, "/api/v1/user"},
		{http.MethodGet, "/api/v1/user/user-name/alice"},
		{http.MethodPut, "/api/v1/user/0b0d3f8e-7c45-4a53-9c1e-0f4d1d1f2a6b"},
	} {
		rec := s.do(r.method, r.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
		assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, rec.Body.String())
	}
}

func TestForgotPasswordRoute(t *testing.T) {
	s := newServer(t)
	_, err := s.svc.Register(context.Background(), service.RegisterInput{
		UserName: "alice", FirstName: "A", LastName: "L", Password: "pw1", SecurityAnswer: "blue",
	})
	require.NoError(t, err)

	rec := s.do(http.MethodPatch, "/api/v1/user/forgot-password", "",
		`{"userName":"alice","securityQuestionAnswer":"blue","newPassword":"pw2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s.login(t, "alice", "pw2")
}

func TestHealthRoute(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"system":"healthy","db":"healthy"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
