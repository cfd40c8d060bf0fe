package account

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/anchor/backend/internal/auth"
)

type fakeAccounts struct {
	signedOut string
}

func (f *fakeAccounts) SignUp(_ context.Context, email, _ string) (auth.Session, error) {
	if email == "taken@example.com" {
		return auth.Session{}, errors.New("user already registered")
	}
	return auth.Session{User: auth.User{ID: "new-id", Email: email}}, nil
}

func (f *fakeAccounts) SignIn(_ context.Context, email, password string) (auth.Session, error) {
	if password != "correct-horse" {
		return auth.Session{}, errors.New("invalid login credentials")
	}
	return auth.Session{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600, User: auth.User{ID: "u1", Email: email}}, nil
}

func (f *fakeAccounts) SignOut(_ context.Context, token string) error {
	f.signedOut = token
	return nil
}

func setupRouter(accounts Accounts) *chi.Mux {
	r := chi.NewRouter()
	New(accounts, nil).RegisterRoutes(r)
	return r
}

func post(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSignInAndOut(t *testing.T) {
	accounts := &fakeAccounts{}
	r := setupRouter(accounts)

	rec := post(r, "/auth/signin", `{"email":"a@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accessToken":"access"`)

	rec = post(r, "/auth/signin", `{"email":"a@example.com","password":"wrong-horse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(r, "/auth/signout", "", "access")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "access", accounts.signedOut)

	rec = post(r, "/auth/signout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUp(t *testing.T) {
	r := setupRouter(&fakeAccounts{})

	rec := post(r, "/auth/signup", `{"email":"new@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = post(r, "/auth/signup", `{"email":"taken@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(r, "/auth/signup", `{"email":"not-an-email","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(r, "/auth/signup", `{"email":"new@example.com","password":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnconfiguredAccounts(t *testing.T) {
	r := setupRouter(nil)

	rec := post(r, "/auth/signin", `{"email":"a@example.com","password":"correct-horse"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
