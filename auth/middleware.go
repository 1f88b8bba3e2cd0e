package auth

import (
	"net/http"
	"strings"

	"github.com/user/foodgram-go/apperror"
)

// TokenParser turns a bearer token into a principal. *AuthService implements it.
type TokenParser interface {
	ParseAccessToken(token string) (*Principal, error)
}

// JWTMiddleware identifies the caller. Requests without an Authorization header pass
// through as anonymous; a present but malformed or invalid token is rejected with 401
// instead of silently downgrading the caller.
func JWTMiddleware(parser TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				WriteError(w, r, apperror.NewAuthError("Authorization header format must be Bearer {token}", nil))
				return
			}

			principal, err := parser.ParseAccessToken(token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			WriteError(w, r, ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaffOrReadOnly applies StaffOrReadOnly to every request of a route group.
func RequireStaffOrReadOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := StaffOrReadOnly(r.Method, PrincipalFromContext(r.Context())); err != nil {
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticatedOrReadOnly applies the request-level half of the author policy.
func RequireAuthenticatedOrReadOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := AuthenticatedOrReadOnly(r.Method, PrincipalFromContext(r.Context())); err != nil {
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
