package sweeper

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/metrics"
	"github.com/sibusisodev/campusmart-backend/pkg/storage/gcs"
)

type objectRemover interface {
	Delete(ctx context.Context, objectURL string) error
}

// Consumer drains photo-deletion events and removes the orphaned objects
// from storage.
type Consumer struct {
	storage      objectRemover
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	metrics      *metrics.JobMetrics
}

// NewConsumer wires the sweeper against the configured subscription.
func NewConsumer(storage objectRemover, subscription *pubsub.Subscriber, logg *logger.Logger, jobMetrics *metrics.JobMetrics) (*Consumer, error) {
	if storage == nil {
		return nil, errors.New("object storage is required")
	}
	if subscription == nil {
		return nil, errors.New("photo deletion subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		storage:      storage,
		subscription: subscription,
		logg:         logg,
		metrics:      jobMetrics,
	}, nil
}

// Run processes messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes[eventTypeAttribute],
	})

	if msg.Attributes[eventTypeAttribute] != EventPhotoDeleted {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var event DeletionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode deletion event", err)
		return processResult{ack: true}
	}
	if event.ObjectURL == "" {
		c.logg.Error(logCtx, "deletion event missing object url", errors.New("empty object_url"))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{"object_url": event.ObjectURL})

	if err := c.storage.Delete(ctx, event.ObjectURL); err != nil {
		if errors.Is(err, gcs.ErrInvalidObjectURL) {
			// A URL outside managed storage can never succeed; drop it.
			c.logg.Error(logCtx, "deletion event references foreign storage", err)
			c.metrics.IncFailure("photo_sweeper")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "failed to remove stored object", err)
		c.metrics.IncFailure("photo_sweeper")
		return processResult{nack: true}
	}

	c.metrics.IncSuccess("photo_sweeper")
	c.logg.Info(logCtx, "removed orphaned object")
	return processResult{ack: true}
}
