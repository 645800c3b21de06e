package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	uploadEndpoint = "https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=media&name=%s"
	objectEndpoint = "https://storage.googleapis.com/storage/v1/b/%s/o/%s"
	publicHost     = "storage.googleapis.com"
)

// ErrInvalidObjectURL signals a URL that was not issued by this storage layer.
var ErrInvalidObjectURL = errors.New("invalid storage object reference")

// ProgressFunc receives upload progress as a percentage in [0, 100].
// Invocations are monotonically non-decreasing; completion is signaled by
// Upload returning, not by the callback reaching 100.
type ProgressFunc func(pct float64)

// Upload writes data to the named object and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	return c.UploadWithProgress(ctx, bucket, object, contentType, data, nil)
}

// UploadWithProgress is Upload with a byte-level progress callback.
func (c *Client) UploadWithProgress(ctx context.Context, bucket, object, contentType string, data []byte, onProgress ProgressFunc) (string, error) {
	if c == nil || c.tokens == nil {
		return "", errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if object == "" || strings.HasPrefix(object, "/") || strings.Contains(object, "..") {
		return "", fmt.Errorf("invalid object path %q", object)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	var body io.Reader = bytes.NewReader(data)
	if onProgress != nil {
		body = &progressReader{r: body, total: int64(len(data)), onProgress: onProgress}
	}

	u := fmt.Sprintf(uploadEndpoint, url.PathEscape(bucket), url.QueryEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return "", fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return "", fmt.Errorf("gcs upload failed: %s", resp.Status)
	}

	return PublicURL(bucket, object), nil
}

// Delete removes the object referenced by a previously issued public URL.
// URLs that do not resolve to an object in this client's namespace fail
// with ErrInvalidObjectURL instead of a best-effort delete.
func (c *Client) Delete(ctx context.Context, objectURL string) error {
	if c == nil || c.tokens == nil {
		return errors.New("gcs client not initialized")
	}

	bucket, object, err := ParseObjectURL(objectURL)
	if err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(objectEndpoint, url.PathEscape(bucket), url.PathEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("gcs delete failed: %s", resp.Status)
	}
	return nil
}

// PublicURL returns the durable fetch URL for an object.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://%s/%s/%s", publicHost, bucket, escapeObjectPath(object))
}

// ParseObjectURL recovers (bucket, object) from a public URL.
func ParseObjectURL(objectURL string) (string, string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}
	if u.Scheme != "https" || u.Host != publicHost {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}

	trimmed := strings.TrimPrefix(u.Path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}

	object, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}
	return parts[0], object, nil
}

func escapeObjectPath(object string) string {
	segments := strings.Split(object, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// progressReader reports cumulative read progress as a percentage.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	lastPct    float64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		pct := 100.0
		if p.total > 0 {
			pct = float64(p.read) / float64(p.total) * 100
		}
		if pct > 100 {
			pct = 100
		}
		// never report backwards
		if pct >= p.lastPct {
			p.lastPct = pct
			p.onProgress(pct)
		}
	}
	return n, err
}
