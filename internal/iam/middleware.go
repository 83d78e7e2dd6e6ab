package iam

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// AuthMiddleware validates bearer tokens and puts the caller's claims on
// the request context
func AuthMiddleware(tokens *TokenManager, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.WriteError(w, r, log, types.NewAuthenticationError(types.ErrCodeUnauthorized, "missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.WriteError(w, r, log, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid authorization header format"))
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				log.WithError(err).Debug("Token validation failed")
				api.WriteError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(api.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(log *logger.Logger, roles ...types.UserRole) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := api.ClaimsFrom(r.Context())
			if !ok {
				api.WriteError(w, r, log, types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required"))
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Security("access_denied", claims.Username, map[string]interface{}{
				"path": r.URL.Path,
				"role": claims.Role,
			})
			api.WriteError(w, r, log, types.NewAuthorizationError(types.ErrCodeForbidden, "insufficient role"))
		})
	}
}
