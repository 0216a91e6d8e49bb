package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// BearerAuth returns middleware that validates the Authorization: Bearer <token> header.
// Uses crypto/subtle.ConstantTimeCompare to prevent timing attacks.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			provided, hasPrefix := strings.CutPrefix(auth, "Bearer ")

			if !hasPrefix || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the mobile and web clients to call the API from the given
// origins. "*" allows any origin without credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	}
	for _, o := range origins {
		if o == "*" {
			return cors.New(opts).Handler
		}
	}
	opts.AllowCredentials = true
	return cors.New(opts).Handler
}
