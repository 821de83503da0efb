package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware checks the Authorization header against the key returned by
// apiKey, accepting either "Bearer <key>" or the bare key. The key is read on
// every request; an empty key disables auth.
func AuthMiddleware(apiKey func() string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKey()
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func staticKey(key string) func() string {
	return func() string { return key }
}
