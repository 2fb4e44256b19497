package testutil

import (
	"net/http"

	"empresaflow/internal/authz"
	"empresaflow/pkg/requestcontext"
)

// AsCaller puts what RequireAuth would have stored on req: the user id and
// the authorization context for role.
func AsCaller(req *http.Request, userID string, role authz.Role) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = authz.WithContext(ctx, authz.NewAuthorizationContext(userID, role))
	return req.WithContext(ctx)
}

// CallerMiddleware stands in for RequireAuth in handler tests.
func CallerMiddleware(userID string, role authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, AsCaller(r, userID, role))
		})
	}
}
