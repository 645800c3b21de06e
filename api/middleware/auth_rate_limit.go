package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy throttles one auth surface with independent
// per-IP and per-email counters. Zero limits disable the dimension;
// a zero window disables the policy entirely.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy assembles a named policy from a window and its limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:       name,
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// AuthRateLimit enforces the policy in front of login and register.
// Emails are hashed before they become Redis keys or log fields.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		guard := authLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard.blockedByIP(w, r) {
				return
			}
			if guard.blockedByEmail(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

func (l authLimiter) blockedByIP(w http.ResponseWriter, r *http.Request) bool {
	if l.policy.ipLimit <= 0 {
		return false
	}
	ip := clientIP(r)
	if ip == "" {
		return false
	}
	key := "rl:ip:" + l.policy.name + ":" + ip
	return l.consume(w, r.Context(), key, int64(l.policy.ipLimit), map[string]any{"scope": "ip", "ip": ip})
}

func (l authLimiter) blockedByEmail(w http.ResponseWriter, r *http.Request) bool {
	if l.policy.emailLimit <= 0 {
		return false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(r.Context(), l.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
		return true
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	email := emailFromBody(body)
	if email == "" {
		return false
	}
	hash := hashValue(email)
	key := "rl:email:" + l.policy.name + ":" + hash
	return l.consume(w, r.Context(), key, int64(l.policy.emailLimit), map[string]any{"scope": "email", "email_hash": hash})
}

// consume increments the counter and writes the 429 (or dependency
// error) response itself when the request must not proceed.
func (l authLimiter) consume(w http.ResponseWriter, ctx context.Context, key string, limit int64, fields map[string]any) bool {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, l.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return true
	}
	if count <= limit {
		return false
	}

	if l.logg != nil {
		fields["policy"] = l.policy.name
		fields["attempts"] = count
		fields["limit"] = limit
		fields["window_seconds"] = int(l.policy.window.Seconds())
		l.logg.Warn(l.logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return true
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
