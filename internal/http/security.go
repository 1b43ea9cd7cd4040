package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"dailyexpense/internal/log"
)

type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

func (m *securityMetrics) rateLimited() int64 {
	return atomic.LoadInt64(&m.rateLimitHits)
}

// trustedProxies may set forwarding headers.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("::1/128"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP honours X-Forwarded-For and X-Real-IP only when the
// direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", ".git", "etc/passwd",
	"<script", "union select", "wp-admin",
}

// isSuspicious flags scanner traffic that no client of this API would
// send. Only the path and the backup file name are scanned; search text
// may contain anything.
func isSuspicious(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.Query().Get("file"))
	for _, p := range suspiciousPatterns {
		if strings.Contains(target, p) {
			return true
		}
	}
	return len(r.URL.String()) > 2048
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// withSecurity sets response headers, rate-limits writes, rejects obvious
// probes and logs every completed request.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			log.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds())
		}()

		h := rw.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		clientIP := extractClientIP(r)
		if isSuspicious(r) {
			atomic.AddInt64(&s.metrics.suspiciousRequests, 1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				"client_ip", clientIP,
				"path", r.URL.Path)
			writeError(rw, r, fmt.Errorf("%w: request rejected", errBadRequest))
			return
		}
		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			h.Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}

		next.ServeHTTP(rw, r)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
