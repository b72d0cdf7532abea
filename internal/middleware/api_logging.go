package middleware

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// APIRequestLog is one completed API request.
type APIRequestLog struct {
	Method       string
	Path         string
	StatusCode   int
	Duration     time.Duration
	ResponseSize int
	TreasurerID  int
	IPAddress    string
}

// APILoggingMiddleware writes one access log line per API request from a
// background goroutine so requests never wait on the log writer.
type APILoggingMiddleware struct {
	logChan chan APIRequestLog
	logf    func(format string, v ...any)
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw.statusCode = http.StatusSwitchingProtocols
	return hijack(rw.ResponseWriter)
}

func NewAPILoggingMiddleware() *APILoggingMiddleware {
	return newAPILoggingMiddleware(log.Printf)
}

func newAPILoggingMiddleware(logf func(format string, v ...any)) *APILoggingMiddleware {
	m := &APILoggingMiddleware{
		logChan: make(chan APIRequestLog, 1000),
		logf:    logf,
	}
	go m.asyncLogWriter()
	return m
}

func (m *APILoggingMiddleware) asyncLogWriter() {
	for e := range m.logChan {
		m.logf("[API] %s %s %d %.1fms %dB treasurer=%d ip=%s",
			e.Method, e.Path, e.StatusCode,
			float64(e.Duration.Microseconds())/1000.0,
			e.ResponseSize, e.TreasurerID, e.IPAddress)
	}
}

// Handler returns the middleware handler
func (m *APILoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		entry := APIRequestLog{
			Method:       r.Method,
			Path:         sanitizePath(r.URL.Path),
			StatusCode:   wrapped.statusCode,
			Duration:     time.Since(start),
			ResponseSize: wrapped.bytesWritten,
			IPAddress:    getClientIP(r),
		}
		// Auth runs in a subrouter, so the ID is only visible when the
		// logger is attached below it.
		if id, ok := GetTreasurerIDFromContext(r.Context()); ok {
			entry.TreasurerID = id
		}

		select {
		case m.logChan <- entry:
		default:
			log.Printf("[APILogging] Log buffer full, dropping log entry for %s", r.URL.Path)
		}
	})
}

func shouldSkipLogging(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/favicon.ico"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

func sanitizePath(path string) string {
	if len(path) > 500 {
		path = path[:500]
	}
	return path
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies/load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
