// Package pubsub wraps the Cloud Pub/Sub v2 client for the photo
// deletion pipeline. Topics and subscriptions are provisioned out of
// band; the wrapper only resolves resource names and fails fast at
// boot when a configured subscription is missing.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscriptions   = errors.New("pubsub subscription name is required")
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient connects to Pub/Sub and verifies every configured
// subscription exists before returning.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	inner, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: inner, projectID: projectID, cfg: cfg}
	if err := c.checkSubscriptions(ctx); err != nil {
		_ = inner.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) checkSubscriptions(ctx context.Context) error {
	checked := 0
	for _, name := range []string{c.cfg.PhotoDeletionSubscription} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		checked++

		fullName := c.resourceName("subscriptions", name)
		if fullName == "" {
			return fmt.Errorf("subscription %q not configured", name)
		}
		_, err := c.client.SubscriptionAdminClient.GetSubscription(
			ctx,
			&pubsubpb.GetSubscriptionRequest{Subscription: fullName},
		)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", name)
		}
		if err != nil {
			return fmt.Errorf("checking subscription %q: %w", name, err)
		}
	}
	if checked == 0 {
		return errNoSubscriptions
	}
	return nil
}

// PhotoDeletionPublisher returns the publisher for photo deletion events.
func (c *Client) PhotoDeletionPublisher() *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.resourceName("topics", c.cfg.PhotoDeletionTopic)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// PhotoDeletionSubscription returns the subscriber the sweeper consumes.
func (c *Client) PhotoDeletionSubscription() *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.resourceName("subscriptions", c.cfg.PhotoDeletionSubscription)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// Ping re-runs the subscription existence checks.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.checkSubscriptions(ctx)
}

// Close releases the underlying gRPC connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceName expands a bare ID into a full resource name. Values that
// already carry the projects/ prefix pass through untouched, which lets
// config point at another project's resources.
func (c *Client) resourceName(kind, name string) string {
	if c == nil {
		return ""
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	if c.projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", c.projectID, kind, name)
}
