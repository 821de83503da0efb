// Package middleware provides HTTP middleware for the RescueDesk API.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Strob0t/RescueDesk/internal/logger"
	"github.com/Strob0t/RescueDesk/internal/port/messagequeue"
)

// RequestID stores the caller's X-Request-ID (or a fresh one) in the request
// context and echoes it on the response. Plan events published while serving
// the request carry the same id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(messagequeue.HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = generateID()
		}

		w.Header().Set(messagequeue.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// generateID returns 32 hex chars.
func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
