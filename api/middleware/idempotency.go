package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	pkgredis "github.com/sibusisodev/campusmart-backend/pkg/redis"
)

const (
	// Write endpoints replay for a day; money-moving endpoints for a
	// week, long enough to cover delayed client retries after an outage.
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// idempotencyRule matches a request path. Exact wins when set; otherwise
// the prefix/suffix pair matches parameterized routes like
// /api/v1/orders/<id>/status. Matching runs on r.URL.Path because the
// middleware sits above the versioned subrouters, before chi has resolved
// a route pattern.
type idempotencyRule struct {
	method string
	exact  string
	prefix string
	suffix string
	ttl    time.Duration
}

func (rule idempotencyRule) matches(method, path string) bool {
	if rule.method != method {
		return false
	}
	if rule.exact != "" {
		return path == rule.exact
	}
	return strings.HasPrefix(path, rule.prefix) && strings.HasSuffix(path, rule.suffix)
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, exact: "/api/v1/items", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/photos/upload", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/cart/items", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/orders", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/orders/", suffix: "/status", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/orders/", suffix: "/payments", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/payments/", suffix: "/refund", ttl: criticalIdempotencyTTL},
}

// idempotencyRecord is the stored response, replayed on key reuse. The
// body is base64 so binary payloads survive the JSON round trip.
type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays stored responses for repeated Idempotency-Key
// values on guarded endpoints. Reusing a key with a different request
// body is rejected rather than replayed.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := routeTTL(r.Method, r.URL.Path)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if idempotencyKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), idempotencyKey)

			stored, err := store.Get(r.Context(), key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != "" {
				replayStored(r.Context(), logg, w, stored, requestHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			persistRecord(r.Context(), logg, store, key, ttl, capture, requestHash)
		})
	}
}

func replayStored(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}

	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func persistRecord(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, ttl time.Duration, capture *responseCapture, requestHash string) {
	status := capture.status
	if status == 0 {
		status = http.StatusOK
	}
	record := idempotencyRecord{
		Status:      status,
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: requestHash,
	}
	if ct := capture.Header().Get("Content-Type"); ct != "" {
		record.Headers = map[string]string{"Content-Type": ct}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		logError(ctx, logg, "marshal idempotency record", err)
		return
	}
	if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
		logError(ctx, logg, "persist idempotency record", err)
	}
}

// requestScope isolates records per user, method, and path so one
// user's key cannot replay another user's response.
func requestScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, rule := range idempotencyRules {
		if rule.matches(method, path) {
			return rule.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
