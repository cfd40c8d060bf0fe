package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/anchor/backend/internal/config"
)

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerToken("Basic dXNlcg==")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTRoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("secret", "anchor-dev")
	token, err := a.IssueToken(User{ID: "user-1", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	user, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "user-1", Email: "a@example.com"}, user)
}

func TestJWTRejects(t *testing.T) {
	a := NewJWTAuthenticator("secret", "")
	ctx := context.Background()

	other := NewJWTAuthenticator("other", "")
	forged, err := other.IssueToken(User{ID: "u"}, time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := a.IssueToken(User{ID: "u"}, time.Hour)
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthorized)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, noExp)
	assert.ErrorIs(t, err, ErrUnauthorized)

	issuerBound := NewJWTAuthenticator("secret", "anchor")
	_, err = issuerBound.Authenticate(ctx, forgedWithSecret(t, "secret"))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func forgedWithSecret(t *testing.T, secret string) string {
	t.Helper()
	token, err := NewJWTAuthenticator(secret, "someone-else").IssueToken(User{ID: "u"}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestNewJWTAuthenticatorWithoutSecret(t *testing.T) {
	assert.Nil(t, NewJWTAuthenticator("", ""))
}

type stubAuth struct {
	user User
	err  error
}

func (s stubAuth) Authenticate(context.Context, string) (User, error) { return s.user, s.err }

func TestChain(t *testing.T) {
	_, err := Chain(nil).Authenticate(context.Background(), "t")
	assert.ErrorIs(t, err, ErrNotConfigured)

	chain := Chain{stubAuth{err: ErrUnauthorized}, stubAuth{user: User{ID: "u2"}}}
	user, err := chain.Authenticate(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)

	chain = Chain{stubAuth{err: errors.New("first")}, stubAuth{err: ErrUnauthorized}}
	_, err = chain.Authenticate(context.Background(), "t")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequireUser(t *testing.T) {
	a := NewJWTAuthenticator("secret", "")
	token, err := a.IssueToken(User{ID: "user-9"}, time.Minute)
	require.NoError(t, err)

	var seen User
	h := RequireUser(a, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		status int
		body   string
	}{
		{"", http.StatusUnauthorized, `{"error":"Missing authorization"}`},
		{"Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"Bearer " + token, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/backup-memories", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tc.status, rec.Code, tc.header)
		if tc.body != "" {
			assert.JSONEq(t, tc.body, rec.Body.String())
		}
	}
	assert.Equal(t, "user-9", seen.ID)
}

func TestSupabaseAuthenticator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/v1/user" && r.Header.Get("Authorization") == "Bearer good":
			_, _ = w.Write([]byte(`{"id":"6f1c1b7e-0d4e-4c8a-9a57-6f1f0d2f8a11","email":"me@example.com"}`))
		case r.URL.Path == "/auth/v1/token":
			_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"6f1c1b7e-0d4e-4c8a-9a57-6f1f0d2f8a11","email":"me@example.com"}}`))
		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid token"}`))
		}
	}))
	defer srv.Close()

	a, err := NewSupabaseAuthenticator(srv.URL, "anon")
	require.NoError(t, err)
	ctx := context.Background()

	user, err := a.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "6f1c1b7e-0d4e-4c8a-9a57-6f1f0d2f8a11", user.ID)

	_, err = a.Authenticate(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := a.SignIn(ctx, "me@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "me@example.com", session.User.Email)

	assert.NoError(t, a.SignOut(ctx, "at"))
}

func TestBuild(t *testing.T) {
	chain, supaAuth, err := Build(config.AuthConfig{})
	require.NoError(t, err)
	assert.Empty(t, chain)
	assert.Nil(t, supaAuth)

	chain, supaAuth, err = Build(config.AuthConfig{JWTSecret: "s", SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "anon"})
	require.NoError(t, err)
	assert.Len(t, chain, 2)
	assert.NotNil(t, supaAuth)
}
