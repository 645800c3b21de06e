// Package square wraps the Square SDK for card charges. Checkout is the
// only caller, so the wrapper stays small: payment create/get, request
// logging with PII redaction, and translation of Square API failures
// into domain error codes.
package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/sibusisodev/campusmart-backend/pkg/config"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired   = errors.New("square access token is required")
	errWebhookSecretRequired = errors.New("square webhook secret is required")
	errInvalidSquareEnv      = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired        = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Log field names containing any of these fragments are replaced before
// they reach the log stream.
var sensitiveFragments = []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"}

// Client wraps the Square SDK with logging, idempotency-key handling,
// and domain error mapping.
type Client struct {
	sdk           *sqclient.Client
	accessToken   string
	environment   string
	webhookSecret string
	baseURL       string
	logger        *logger.Logger
}

// NewClient validates the Square credentials and builds the wrapper.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := baseURLs[env]
	c := &Client{
		sdk: sqclient.NewClient(
			sqoption.WithBaseURL(baseURL),
			sqoption.WithToken(accessToken),
		),
		accessToken:   accessToken,
		environment:   env,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		logger:        logg,
	}

	logg.Info(ctx, "square client initialized")
	return c, nil
}

// Environment returns the lowercased Square environment name.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret hands the webhook signature secret to verifiers.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewIdempotencyKey mints a prefixed, unique key for a Square call.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "cm"
	}
	return key + "-" + uuid.NewString()
}

// CreatePayment charges a card source through Square.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	req := params.toSquareRequest(c.idempotencyKeyOr("payment.create", params.IdempotencyKey))
	c.logRequest(ctx, "create_payment", map[string]any{
		"location_id": params.LocationID,
		"customer_id": params.CustomerID,
		"amount":      params.AmountCents,
	})

	resp, err := c.sdk.Payments.Create(ctx, req)
	if err != nil {
		c.logFailure(ctx, "create_payment", err)
		return nil, c.wrapSquareError(err, "create payment")
	}

	payment := resp.GetPayment()
	c.logResponse(ctx, "create_payment", payment)
	return payment, nil
}

// GetPayment fetches the current state of a Square payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	c.logRequest(ctx, "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Get(ctx, &sq.GetPaymentsRequest{PaymentID: paymentID})
	if err != nil {
		c.logFailure(ctx, "get_payment", err)
		return nil, c.wrapSquareError(err, "get payment")
	}

	payment := resp.GetPayment()
	c.logResponse(ctx, "get_payment", payment)
	return payment, nil
}

func (c *Client) idempotencyKeyOr(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) logRequest(ctx context.Context, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, redactFields(op, "request", fields))
	c.logger.Info(ctx, "square request")
}

func (c *Client) logResponse(ctx context.Context, op string, payment *sq.Payment) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, redactFields(op, "response", map[string]any{
		"payment_id": deref(payment.GetID()),
		"status":     deref(payment.GetStatus()),
	}))
	c.logger.Info(ctx, "square response")
}

func (c *Client) logFailure(ctx context.Context, op string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, map[string]any{"operation": op, "phase": "error"})
	c.logger.Error(ctx, fmt.Sprintf("square %s", op), err)
}

func redactFields(op, phase string, fields map[string]any) map[string]any {
	out := map[string]any{"operation": op, "phase": phase}
	for k, v := range fields {
		out[k] = redactValue(k, v)
	}
	return out
}

func redactValue(key string, value any) any {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lower, fragment) {
			return "[REDACTED]"
		}
	}
	return value
}

// wrapSquareError converts a Square SDK failure into a coded domain
// error. The HTTP status picks the baseline code; specific Square error
// codes in the response body can override it.
func (c *Client) wrapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf("square %s failed", op)

	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}

	code := codeForStatus(apiErr.StatusCode)
	for _, sqErr := range decodeSquareErrors(apiErr) {
		if sqErr == nil {
			continue
		}
		switch {
		case sqErr.Code == sq.ErrorCodeIdempotencyKeyReused:
			code = pkgerrors.CodeIdempotency
		case sqErr.Category == sq.ErrorCategoryAuthenticationError:
			code = pkgerrors.CodeUnauthorized
		default:
			continue
		}
		break
	}
	return pkgerrors.Wrap(code, err, msg)
}

// decodeSquareErrors digs the structured errors array out of an
// APIError. The SDK keeps the raw response body behind Unwrap.
func decodeSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if json.Unmarshal([]byte(raw), &payload) != nil {
		return nil
	}
	return payload.Errors
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	}
	if status >= 400 && status < 500 {
		return pkgerrors.CodeValidation
	}
	return pkgerrors.CodeDependency
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	switch env {
	case "":
		return sandboxEnv, nil
	case sandboxEnv, productionEnv:
		return env, nil
	}
	return "", errInvalidSquareEnv
}
