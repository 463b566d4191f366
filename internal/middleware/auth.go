package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/http/respond"
)

// Authenticate requires a valid, unexpired access token in the Authorization
// header and stores its subject as the request principal.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, unauthorizedMessage(err))
				return
			}
			ctx := auth.WithPrincipal(r.Context(), auth.Principal{Username: claims.Username()})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "access token expired"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "an access token is required"
	default:
		return "invalid access token"
	}
}
