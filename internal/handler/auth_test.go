package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/account-service/internal/service"
)

func TestLogin_JSON(t *testing.T) {
	s := newStack(t)
	a := s.register(t, "alice", "pw1", "blue")

	rec := s.call(s.auth.Login, http.MethodPost, `{"username":"alice","password":"pw1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "Bearer", body["token_type"])
	claims, err := s.codec.Decode(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.Subject)

	stored, err := s.store.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLogin_Form(t *testing.T) {
	s := newStack(t)
	s.register(t, "alice", "pw1", "blue")

	rec := s.callForm(s.auth.Login, url.Values{"username": {"alice"}, "password": {"pw1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bearer", decode(t, rec)["token_type"])
}

func TestLogin_DoesNotRevealUnknownUser(t *testing.T) {
	s := newStack(t)
	s.register(t, "alice", "pw1", "blue")

	wrong := s.call(s.auth.Login, http.MethodPost, `{"username":"alice","password":"nope"}`, nil)
	unknown := s.call(s.auth.Login, http.MethodPost, `{"username":"bob","password":"nope"}`, nil)

	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Incorrect user name or password", decode(t, wrong)["detail"])
}

func TestLogin_UserNameTrimmedLikeRegistration(t *testing.T) {
	s := newStack(t)

	rec := s.call(s.accounts.Create, http.MethodPost,
		`{"userName":" alice ","firstName":"A","lastName":"L","password":"pw1","securityQuestionAnswer":"blue"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.call(s.auth.Login, http.MethodPost, `{"username":"alice ","password":"pw1"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.callForm(s.auth.Login, url.Values{"username": {"  alice"}, "password": {"pw1"}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogin_Inactive(t *testing.T) {
	s := newStack(t)
	a := s.register(t, "alice", "pw1", "blue")
	inactive := false
	_, err := s.svc.UpdateAccount(context.Background(), a.ID, service.AdminUpdateInput{
		UserName: "alice", FirstName: "First", LastName: "Last", IsActive: &inactive,
	})
	require.NoError(t, err)

	rec := s.call(s.auth.Login, http.MethodPost, `{"username":"alice","password":"pw1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Inactive user", decode(t, rec)["detail"])
}

func TestLogin_MissingFields(t *testing.T) {
	s := newStack(t)

	rec := s.call(s.auth.Login, http.MethodPost, `{"username":"alice"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decode(t, rec)["detail"].(map[string]any)
	assert.Contains(t, detail, "password")
	assert.NotContains(t, detail, "username")
}

func TestLogin_BadBody(t *testing.T) {
	s := newStack(t)

	rec := s.call(s.auth.Login, http.MethodPost, `{"username":`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "body")
}

func TestTestToken_ReturnsCaller(t *testing.T) {
	s := newStack(t)
	a := s.register(t, "alice", "pw1", "blue")

	rec := s.call(s.auth.TestToken, http.MethodPost, "", &a)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, a.ID, body["id"])
	assert.Equal(t, "alice", body["userName"])
	assert.NotContains(t, body, "hashedPassword")
}
