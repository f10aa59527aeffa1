package handler

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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/repository"
	"github.com/iliyamo/account-service/internal/service"
	"github.com/iliyamo/account-service/internal/utils"
)

var cheapParams = utils.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, SaltLen: 16, KeyLen: 32}

type stack struct {
	e        *echo.Echo
	store    *repository.MemoryAccountRepo
	svc      *service.AccountService
	codec    *utils.TokenCodec
	resolver *service.IdentityResolver
	auth     *AuthHandler
	accounts *AccountHandler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{e: echo.New(), store: repository.NewMemoryAccountRepo()}
	hasher := utils.NewPasswordHasher(cheapParams, 4)
	s.codec = utils.NewTokenCodec("test-secret", time.Hour)
	s.svc = service.NewAccountService(s.store, hasher, nil, zap.NewNop())
	s.resolver = service.NewIdentityResolver(s.store, hasher, s.codec)
	s.auth = NewAuthHandler(s.resolver, s.codec, s.svc, zap.NewNop(), time.Second)
	s.accounts = NewAccountHandler(s.svc, zap.NewNop(), time.Second)
	return s
}

func (s *stack) register(t *testing.T, name, pw, answer string) model.Account {
	t.Helper()
	a, err := s.svc.Register(context.Background(), service.RegisterInput{
		UserName: name, FirstName: "First", LastName: "Last", Password: pw, SecurityAnswer: answer,
	})
	require.NoError(t, err)
	return a
}

// call runs h against a JSON body.  caller, when non-nil, is installed as
// the authenticated account.
func (s *stack) call(h echo.HandlerFunc, method, body string, caller *model.Account, params ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return s.run(h, req, caller, params...)
}

func (s *stack) callForm(h echo.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return s.run(h, req, nil)
}

func (s *stack) run(h echo.HandlerFunc, req *http.Request, caller *model.Account, params ...string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if caller != nil {
		middleware.SetCurrentAccount(c, *caller)
	}
	if err := h(c); err != nil {
		s.e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
