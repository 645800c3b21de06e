package square

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

func TestIdempotencyKeyOr(t *testing.T) {
	c := &Client{}
	if got := c.idempotencyKeyOr("charge", "caller-supplied"); got != "caller-supplied" {
		t.Fatalf("caller key not preserved, got %q", got)
	}
	generated := c.idempotencyKeyOr("charge", "  ")
	if !strings.HasPrefix(generated, "charge-") {
		t.Fatalf("generated key %q missing prefix", generated)
	}
	if generated == c.idempotencyKeyOr("charge", "") {
		t.Fatalf("generated keys must be unique")
	}
}

func TestRedactValue(t *testing.T) {
	if got := redactValue("payment_token", "abc123"); got != "[REDACTED]" {
		t.Fatalf("token field leaked: %v", got)
	}
	if got := redactValue("buyer_email", "x@campus.edu"); got != "[REDACTED]" {
		t.Fatalf("email field leaked: %v", got)
	}
	if got := redactValue("status", "COMPLETED"); got != "COMPLETED" {
		t.Fatalf("safe field mangled: %v", got)
	}
}

func TestCodeForStatus(t *testing.T) {
	cases := map[int]pkgerrors.Code{
		http.StatusBadRequest:          pkgerrors.CodeValidation,
		http.StatusUnauthorized:        pkgerrors.CodeUnauthorized,
		http.StatusForbidden:           pkgerrors.CodeForbidden,
		http.StatusNotFound:            pkgerrors.CodeNotFound,
		http.StatusConflict:            pkgerrors.CodeConflict,
		http.StatusUnprocessableEntity: pkgerrors.CodeStateConflict,
		http.StatusTooManyRequests:     pkgerrors.CodeRateLimit,
		http.StatusTeapot:              pkgerrors.CodeValidation,
		http.StatusBadGateway:          pkgerrors.CodeDependency,
	}
	for status, want := range cases {
		if got := codeForStatus(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}
}

func TestWrapSquareError(t *testing.T) {
	c := &Client{}

	cases := []struct {
		name    string
		status  int
		payload string
		want    pkgerrors.Code
	}{
		{
			name:    "auth category overrides status",
			status:  http.StatusForbidden,
			payload: `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			want:    pkgerrors.CodeUnauthorized,
		},
		{
			name:    "idempotency reuse",
			status:  http.StatusConflict,
			payload: `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			want:    pkgerrors.CodeIdempotency,
		},
		{
			name:    "status baseline when body has no override",
			status:  http.StatusNotFound,
			payload: `{"errors":[{"category":"API_ERROR","code":"NOT_FOUND"}]}`,
			want:    pkgerrors.CodeNotFound,
		},
	}
	for _, tc := range cases {
		wrapped := c.wrapSquareError(sqcore.NewAPIError(tc.status, errors.New(tc.payload)), "create payment")
		typed := pkgerrors.As(wrapped)
		if typed == nil {
			t.Fatalf("%s: expected coded error, got %v", tc.name, wrapped)
		}
		if typed.Code() != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, typed.Code())
		}
	}

	plain := c.wrapSquareError(errors.New("dial tcp: timeout"), "create payment")
	if pkgerrors.As(plain).Code() != pkgerrors.CodeDependency {
		t.Fatalf("non-API error should map to dependency code")
	}
}

func TestDecodeSquareErrors(t *testing.T) {
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"missing source"}]}`
	decoded := decodeSquareErrors(sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload)))
	if len(decoded) != 1 {
		t.Fatalf("expected 1 decoded error, got %d", len(decoded))
	}
	if decoded[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected code %s", decoded[0].GetCode())
	}
	if decodeSquareErrors(nil) != nil {
		t.Fatalf("nil APIError should decode to nil")
	}
}
