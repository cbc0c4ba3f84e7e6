package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/handlers"
	"github.com/JaimeStill/custodian/pkg/identity"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errForbidden    = errors.New("privileged role required")
)

// Authenticate returns middleware that resolves the bearer token into an
// identity.Caller stored on the request context. Requests without a valid
// token are rejected with 401.
func Authenticate(verifier identity.Verifier, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, errMissingToken)
				return
			}

			caller, err := verifier.Verify(r.Context(), token)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, identity.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithCaller(r.Context(), caller)))
		})
	}
}

// RequirePrivileged returns middleware that rejects callers without a
// privileged role with 403. It must run after Authenticate.
func RequirePrivileged(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := identity.CallerFrom(r.Context())
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, errMissingToken)
				return
			}
			if !caller.Privileged() {
				handlers.RespondError(w, logger, http.StatusForbidden, errForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < 7 || !strings.EqualFold(v[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(v[7:])
	return token, token != ""
}
