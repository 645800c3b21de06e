package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataTable(t *testing.T) {
	cases := map[Code]struct {
		status    int
		retryable bool
		details   bool
	}{
		CodeValidation:    {http.StatusBadRequest, false, true},
		CodeUnauthorized:  {http.StatusUnauthorized, false, false},
		CodeForbidden:     {http.StatusForbidden, false, false},
		CodeNotFound:      {http.StatusNotFound, false, false},
		CodeConflict:      {http.StatusConflict, false, false},
		CodeStateConflict: {http.StatusUnprocessableEntity, false, true},
		CodeIdempotency:   {http.StatusConflict, false, true},
		CodeRateLimit:     {http.StatusTooManyRequests, false, false},
		CodeInternal:      {http.StatusInternalServerError, true, false},
		CodeDependency:    {http.StatusServiceUnavailable, true, true},
	}

	for code, want := range cases {
		meta := MetadataFor(code)
		if meta.HTTPStatus != want.status {
			t.Fatalf("%s: status %d, want %d", code, meta.HTTPStatus, want.status)
		}
		if meta.Retryable != want.retryable {
			t.Fatalf("%s: retryable %v, want %v", code, meta.Retryable, want.retryable)
		}
		if meta.DetailsAllowed != want.details {
			t.Fatalf("%s: details allowed %v, want %v", code, meta.DetailsAllowed, want.details)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("%s: empty public message", code)
		}
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor("NO_SUCH_CODE")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal, got %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatalf("unknown code must not leak details")
	}
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "imageData is required")
	if err.Code() != CodeValidation || err.Message() != "imageData is required" {
		t.Fatalf("unexpected error contents: %v", err)
	}
	if err.Details() != nil {
		t.Fatalf("fresh error should carry no details")
	}
	err.WithDetails(map[string]string{"field": "imageData"})
	if err.Details() == nil {
		t.Fatalf("WithDetails dropped the payload")
	}
	if err.Error() != "VALIDATION_ERROR: imageData is required" {
		t.Fatalf("unexpected Error() form %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	wrapped := Wrap(CodeDependency, cause, "object storage upload")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("cause lost through Wrap")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if Wrap(CodeConflict, nil, "no cause").Unwrap() != nil {
		t.Fatalf("nil cause should degrade to New")
	}
}

func TestAsFindsBuriedCodedError(t *testing.T) {
	inner := New(CodeNotFound, "photo record missing")
	outer := Wrap(CodeInternal, inner, "delete photo")
	if got := As(outer); got == nil || got.Code() != CodeInternal {
		t.Fatalf("As should return the outermost coded error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) must be nil")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors are not coded")
	}
}
