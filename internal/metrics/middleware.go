package metrics

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request identifier in both directions
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// clientIP extracts the client IP from X-Forwarded-For or falls back to RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

// mediaExts are file extensions kept out of the access log.
var mediaExts = map[string]bool{
	".css": true, ".js": true, ".png": true, ".jpg": true,
	".jpeg": true, ".gif": true, ".svg": true, ".ico": true,
	".webp": true, ".mp3": true, ".m4a": true, ".flac": true,
	".ogg": true, ".wav": true,
}

func isProbe(p string) bool {
	return p == "/health" || p == "/ready"
}

func skipLog(p string) bool {
	return isProbe(p) || mediaExts[strings.ToLower(path.Ext(p))]
}

// Middleware tags each request with an ID, records its latency and status,
// and writes an access log line. Health probes are passed straight through.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		Get().RecordRequest(rw.status, duration)

		if skipLog(r.URL.Path) {
			return
		}
		log.Info("request",
			"id", reqID,
			"ip", clientIP(r),
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rw.status,
			"bytes", rw.bytes,
			"latency_ms", float64(duration.Microseconds())/1000.0,
		)
	})
}
