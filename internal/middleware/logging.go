package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/emailbuilder/emailbuilder/internal/logger"
)

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// Logger logs one line per request. Probe endpoints log at debug level.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.log.HTTPRequest(logger.RequestLog{
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    rec.status,
			Bytes:     rec.bytes,
			Duration:  time.Since(start),
			ClientIP:  clientIP(r),
			RequestID: GetRequestID(r.Context()),
			Probe:     isProbe(r.URL.Path),
		})
	})
}

// clientIP prefers the first X-Forwarded-For hop over the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready" || path == "/metrics"
}
