package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"
)

// Session is what sign-up and sign-in hand back to the client.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// SupabaseAuthenticator asks GoTrue who owns a token.
type SupabaseAuthenticator struct {
	client *supa.Client
}

// NewSupabaseAuthenticator uses the anon key; GoTrue does not need the service role for these calls.
func NewSupabaseAuthenticator(url, anonKey string) (*SupabaseAuthenticator, error) {
	client, err := supa.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase auth client: %w", err)
	}
	return &SupabaseAuthenticator{client: client}, nil
}

// Authenticate implements Authenticator.
func (a *SupabaseAuthenticator) Authenticate(ctx context.Context, token string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	resp, err := a.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if resp.ID == uuid.Nil {
		return User{}, ErrUnauthorized
	}
	return User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// SignUp registers an email/password account. Session is empty when email confirmation is pending.
func (a *SupabaseAuthenticator) SignUp(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if email == "" || password == "" {
		return Session{}, errors.New("email and password are required")
	}
	resp, err := a.client.Auth.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, fmt.Errorf("sign up: %w", err)
	}

	session := Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		User:         User{ID: resp.User.ID.String(), Email: resp.User.Email},
	}
	if resp.User.ID == uuid.Nil && resp.Session.User.ID != uuid.Nil {
		session.User = User{ID: resp.Session.User.ID.String(), Email: resp.Session.User.Email}
	}
	return session, nil
}

// SignIn exchanges email and password for a session.
func (a *SupabaseAuthenticator) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	resp, err := a.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		User:         User{ID: resp.User.ID.String(), Email: resp.User.Email},
	}, nil
}

// SignOut revokes the session behind token.
func (a *SupabaseAuthenticator) SignOut(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.client.Auth.WithToken(token).Logout(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
