package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/searchbook/internal/ratelimit"
)

// RateLimiter limits requests per client IP.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing ratePerInterval requests per
// interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	if burst <= 0 {
		burst = ratePerInterval
	}
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst, 10*time.Minute)
}

// rateLimit is an operation middleware answering 429 once a client IP runs
// out of tokens.
func (s *Server) rateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.rateLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.RemoteAddr(), ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP"))
	if !s.rateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP picks the client address: the first X-Forwarded-For hop, then
// X-Real-IP, then the remote address without its port.
func clientIP(remoteAddr, forwardedFor, realIP string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
