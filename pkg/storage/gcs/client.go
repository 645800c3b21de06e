// Package gcs talks to Google Cloud Storage over its JSON API. Photo
// bytes are small enough that a single-shot upload is always used, so
// the client carries only what the upload pipeline and the sweeper
// need: authenticated PUT/DELETE plus a startup health check.
package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

const (
	oauthTokenURL    = "https://oauth2.googleapis.com/token"
	storageScope     = "https://www.googleapis.com/auth/devstorage.read_write"
	metadataTokenURL = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"

	pingTimeout    = 5 * time.Second
	requestTimeout = 10 * time.Second

	// refreshMargin forces a new token fetch once the cached one is
	// within a minute of expiring.
	refreshMargin = time.Minute
)

// Client is a minimal Cloud Storage client scoped to one bucket.
type Client struct {
	httpClient    *http.Client
	defaultBucket string
	tokens        *tokenCache
}

// NewClient builds a client for the configured photo bucket. Credentials
// resolve in order: inline JSON, a credentials file path, then the GCE
// metadata server. The bucket is probed before the client is returned so
// a bad deployment fails at boot rather than on the first upload.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: requestTimeout}

	tokens, err := resolveTokenCache(httpClient, gcp)
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:    httpClient,
		defaultBucket: cfg.BucketName,
		tokens:        tokens,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

func resolveTokenCache(httpClient *http.Client, gcp config.GCPConfig) (*tokenCache, error) {
	if gcp.CredentialsJSON != "" {
		return newServiceAccountTokens(httpClient, gcp.CredentialsJSON)
	}
	if gcp.ApplicationCredentials != "" {
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		return newServiceAccountTokens(httpClient, string(raw))
	}
	return newMetadataTokens(httpClient), nil
}

// DefaultBucket returns the bucket the client was configured with.
func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Close exists so the client can sit behind io.Closer-shaped shutdown
// paths; the underlying http.Client holds no resources to release.
func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object in the default bucket, which verifies
// both the credentials and the bucket's existence.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	listURL := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o?maxResults=1",
		url.PathEscape(c.defaultBucket),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(snippet) > 0 {
			return fmt.Errorf("gcs object check failed: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
		}
		return fmt.Errorf("gcs object check failed: %s", resp.Status)
	}

	return nil
}

// tokenCache hands out a cached access token and refreshes it through
// fetch once the cached one is close to expiry. Safe for concurrent use;
// uploads for one batch fan out across goroutines.
type tokenCache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	fetch  func(context.Context) (string, time.Time, error)
}

func (t *tokenCache) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expiry) > refreshMargin {
		return t.token, nil
	}

	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token = token
	t.expiry = expiry
	return token, nil
}

func newServiceAccountTokens(httpClient *http.Client, jsonCreds string) (*tokenCache, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal([]byte(jsonCreds), &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("invalid service account credentials")
	}

	key, err := parseRSAPrivateKey(creds.PrivateKey)
	if err != nil {
		return nil, err
	}

	tokenURI := creds.TokenURI
	if tokenURI == "" {
		tokenURI = oauthTokenURL
	}

	return &tokenCache{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			return exchangeJWTForToken(ctx, httpClient, creds.ClientEmail, key, tokenURI)
		},
	}, nil
}

func newMetadataTokens(httpClient *http.Client) *tokenCache {
	return &tokenCache{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			return fetchMetadataToken(ctx, httpClient)
		},
	}
}

// exchangeJWTForToken performs the two-legged OAuth flow: sign a short
// self-issued JWT with the service account key and trade it for an
// access token at the token endpoint.
func exchangeJWTForToken(ctx context.Context, httpClient *http.Client, email string, key *rsa.PrivateKey, tokenURI string) (string, time.Time, error) {
	now := time.Now()
	claims := map[string]any{
		"iss":   email,
		"scope": storageScope,
		"aud":   tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	claimBytes, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	unsigned := header + "." + base64.RawURLEncoding.EncodeToString(claimBytes)
	digest := sha256.Sum256([]byte(unsigned))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", time.Time{}, err
	}
	assertion := unsigned + "." + base64.RawURLEncoding.EncodeToString(signature)

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}
	return decodeTokenResponse(resp.Body)
}

func fetchMetadataToken(ctx context.Context, httpClient *http.Client) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataTokenURL, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("metadata token request returned %s", resp.Status)
	}
	return decodeTokenResponse(resp.Body)
}

func decodeTokenResponse(body io.Reader) (string, time.Time, error) {
	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, err
	}
	return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("invalid private key")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if priv, ok := key.(*rsa.PrivateKey); ok {
			return priv, nil
		}
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.New("unsupported private key format")
	}
	return priv, nil
}
