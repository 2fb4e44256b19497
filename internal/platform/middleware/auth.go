package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"empresaflow/internal/authz"
	"empresaflow/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID  string
	Profile string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the caller's user id and
// authorization context on the request.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			role, err := authz.ParseRole(claims.Profile)
			if err != nil {
				logger.WarnContext(ctx, "forbidden - unknown profile",
					"profile", claims.Profile,
					"user_id", claims.UserID,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Profile not recognized")
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = authz.WithContext(ctx, authz.NewAuthorizationContext(claims.UserID, role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects callers whose role does not hold perm.
// Must run after RequireAuth.
func RequirePermission(perm authz.Permission, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ac, ok := authz.FromContext(ctx)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if err := ac.Require(perm); err != nil {
				logger.WarnContext(ctx, "forbidden - missing permission",
					"permission", string(perm),
					"role", ac.Role.String(),
					"user_id", ac.UserID,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
