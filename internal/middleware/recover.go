package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

// Recover turns a panic into a 500 with the standard error envelope
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			m.log.Error().
				Interface("error", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", requestID).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("panic recovered")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":      "INTERNAL_ERROR",
					"message":   "An unexpected error occurred",
					"requestId": requestID,
				},
			})
		}()

		next.ServeHTTP(w, r)
	})
}
