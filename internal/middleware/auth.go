package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"task-tracker/internal/model"
)

// Authenticator is what the gate needs from the auth service: verify an
// access token and resolve its subject to a user.
type Authenticator interface {
	VerifyAccessToken(tokenString string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate runs once per request, before routing. Requests without a
// bearer token pass through unauthenticated and the per-route policy decides
// whether that is acceptable. A bearer token that fails verification, or
// whose subject cannot be resolved to a user, short-circuits with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimSpace(header[len("Bearer "):])
		subject, err := m.auth.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, model.ErrTokenExpired) {
				writeUnauthorized(w, "Access token expired. Please use refresh token to get a new one.")
				return
			}
			writeUnauthorized(w, "Invalid token: "+err.Error())
			return
		}

		user, err := m.auth.GetUserByEmail(r.Context(), subject)
		if err != nil {
			// Fail closed: a verified token whose subject no longer resolves
			// must not proceed as an anonymous request.
			writeUnauthorized(w, "Invalid token: user not found")
			return
		}

		principal := &model.Principal{User: user, Authorities: model.AuthoritiesFor(user.Role)}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole gates a route on an authenticated principal holding the role.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "Authentication required")
				return
			}

			if !principal.HasRole(role) {
				writeStatus(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated is the default-deny gate for unmatched routes.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(*model.Principal)
	return principal, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusUnauthorized, message)
}

// writeStatus mirrors the handler-layer envelope so gate rejections look the
// same as every other error response.
func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.NewAPIResponse(status, message, nil))
}
