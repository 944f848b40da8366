package auth

import (
	"net/http"
	"strconv"
	"strings"

	"carpool/internal/auth/service"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
)

const bearerPrefix = "Bearer "

// Credential extracts the raw credential from the Authorization header or,
// failing that, from the session cookie.
func Credential(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate resolves the request's credential once and stores the caller in
// the context. Requests without a credential pass through anonymously; a
// credential that is present but invalid is answered with 401 right away.
func Authenticate(svc service.AuthService, cookieName string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := Credential(r, cookieName)
			if credential == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, sess, err := svc.Authenticate(r.Context(), credential)
			if err != nil {
				if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
					log.WithContext(r.Context()).Error("Authentication failed", "error", err)
				}
				if isLogout(r) {
					next.ServeHTTP(w, r)
					return
				}
				apperrors.WriteError(w, err)
				return
			}

			ctx := WithCaller(r.Context(), NewCaller(user, sess.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logging out with a stale credential should still clear the cookie.
func isLogout(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/auth/logout"
}

// CallerKey identifies an authenticated client for rate limiting and
// idempotency scoping. It is empty for anonymous requests.
func CallerKey(r *http.Request) string {
	if caller, ok := CallerFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(caller.ID, 10)
	}
	return ""
}
