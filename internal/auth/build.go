package auth

import (
	"github.com/zhouzirui/anchor/backend/internal/config"
)

// Build assembles the authenticator chain: local JWT verification first, then GoTrue.
// The returned *SupabaseAuthenticator is nil when Supabase is not configured.
func Build(cfg config.AuthConfig) (Chain, *SupabaseAuthenticator, error) {
	var chain Chain

	if jwtAuth := NewJWTAuthenticator(cfg.TokenSecret(), cfg.JWTIssuer); jwtAuth != nil {
		chain = append(chain, jwtAuth)
	}

	if cfg.SupabaseURL == "" {
		return chain, nil, nil
	}
	key := cfg.SupabaseAnonKey
	if key == "" {
		key = cfg.SupabaseServiceKey
	}
	if key == "" {
		return chain, nil, nil
	}

	supaAuth, err := NewSupabaseAuthenticator(cfg.SupabaseURL, key)
	if err != nil {
		return nil, nil, err
	}
	return append(chain, supaAuth), supaAuth, nil
}
