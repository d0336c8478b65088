package httpapi

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxAuditBodyBytes = 1024

	// idle per-client limiters are dropped after this long
	staleLimiterTTL = 10 * time.Minute
	cleanupInterval = time.Minute
)

type limitRule struct {
	method string // "" matches any method
	suffix string // "" matches any path
	rps    rate.Limit
	burst  int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies per-client token buckets, one per matched rule.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry // "rule|clientIP"
	rules    []limitRule
	logger   *slog.Logger
	now      func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter starts the background sweep; call Stop to end it.
func NewRateLimiter(logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		logger:   logger.With("component", "httpapi_ratelimit"),
		now:      time.Now,
		stopCh:   make(chan struct{}),
		rules: []limitRule{
			{method: http.MethodPost, suffix: "/transactions", rps: rate.Limit(10.0 / 60), burst: 3}, // 10 req/min
			{method: http.MethodGet, suffix: "/wallets/balances", rps: 1, burst: 2},
			{rps: 20, burst: 40},
		},
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimiter) evictStale() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > staleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		idx := rl.match(r.Method, r.URL.Path)
		if !rl.limiter(idx, clientIP).Allow() {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			rl.logger.Warn("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "client_ip", clientIP)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// match returns the index of the first rule covering the request. The last
// rule matches everything.
func (rl *RateLimiter) match(method, path string) int {
	for i, rule := range rl.rules {
		if rule.method != "" && rule.method != method {
			continue
		}
		if rule.suffix != "" && !strings.HasSuffix(path, rule.suffix) {
			continue
		}
		return i
	}
	return len(rl.rules) - 1
}

func (rl *RateLimiter) limiter(rule int, clientIP string) *rate.Limiter {
	key := rl.rules[rule].method + rl.rules[rule].suffix + "|" + clientIP
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if entry, ok := rl.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	l := rate.NewLimiter(rl.rules[rule].rps, rl.rules[rule].burst)
	rl.limiters[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// extractClientIP prefers X-Forwarded-For, then X-Real-IP, then the peer.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// Audit logs every transaction submission with its outcome.
func Audit(logger *slog.Logger, next http.Handler) http.Handler {
	auditLogger := logger.With("component", "httpapi_audit")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		id := requestID()
		w.Header().Set("X-Request-Id", id)

		var body string
		if r.Body != nil {
			b, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBodyBytes+1))
			if err == nil {
				body = string(b)
				if len(b) > maxAuditBodyBytes {
					body = string(b[:maxAuditBodyBytes]) + "...(truncated)"
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(b), r.Body))
			}
		}

		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		auditLogger.Info("transaction request",
			"request_id", id,
			"remote_addr", r.RemoteAddr,
			"path", r.URL.Path,
			"body", body,
			"status", sw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.written = true
	return sw.ResponseWriter.Write(b)
}
