package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rl1809/storefront/internal/port"
)

// Middleware resolves the Authorization header into an identity on the
// request context. Requests without the header continue anonymously; a bad
// token is rejected with 401 and an unreachable identity provider with 503.
func Middleware(verifier port.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, err := BearerToken(r.Header.Get("Authorization"))
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if err == nil {
				id, verr := verifier.Verify(r.Context(), token)
				if verr == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
				err = verr
			}

			code, reason := Reject(err)
			if code != http.StatusUnauthorized {
				slog.Warn("token verification failed", "error", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{"error": reason.Error()})
		})
	}
}
