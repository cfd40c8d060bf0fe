package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// RequireUser rejects requests without a valid bearer token with 401 {error}.
func RequireUser(a Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					utils.RespondError(w, http.StatusUnauthorized, "Missing authorization")
					return
				}
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				logger.Debug("authentication failed", zap.Error(err))
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
