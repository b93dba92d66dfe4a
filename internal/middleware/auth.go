package middleware

import (
	"net/http"
	"strings"

	"github.com/jayjaytrn/refund-desk/internal/auth"
	"go.uber.org/zap"
)

// ValidateAuth resolves the bearer token into the caller identity and stores it in the request context.
func ValidateAuth(secret string) Middleware {
	return func(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, http.StatusUnauthorized, "Authorization header is missing")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				reject(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			identity, err := auth.ValidateJWT(secret, tokenString)
			if err != nil {
				sugar.Infow("invalid token", "error", err)
				reject(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			h.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin must run after ValidateAuth.
func RequireAdmin(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFrom(r.Context())
		if !ok {
			reject(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		if !identity.IsAdmin() {
			sugar.Infow("admin route refused", "userID", identity.UserID, "path", r.URL.Path)
			reject(w, http.StatusForbidden, "Admin access required")
			return
		}
		h.ServeHTTP(w, r)
	})
}
