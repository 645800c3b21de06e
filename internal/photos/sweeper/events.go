package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

const eventTypeAttribute = "event_type"

// EventPhotoDeleted marks a photo whose stored object should be removed.
const EventPhotoDeleted = "photo.deleted"

// DeletionEvent asks the sweeper to remove one stored object. RecordID is
// zero when the row never existed (an upload whose record creation failed).
type DeletionEvent struct {
	ObjectURL string    `json:"object_url"`
	RecordID  uuid.UUID `json:"record_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

type eventPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Publisher emits deletion events onto the photo-deletion topic.
type Publisher struct {
	topic eventPublisher
	logg  *logger.Logger
}

// NewPublisher wraps a Pub/Sub publisher handle.
func NewPublisher(topic eventPublisher, logg *logger.Logger) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("photo deletion topic is required")
	}
	return &Publisher{topic: topic, logg: logg}, nil
}

// PublishDeletion enqueues one deletion event and waits for the broker ack.
func (p *Publisher) PublishDeletion(ctx context.Context, event DeletionEvent) error {
	if strings.TrimSpace(event.ObjectURL) == "" {
		return errors.New("object_url is required")
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{eventTypeAttribute: EventPhotoDeleted},
	})
	if _, err := result.Get(ctx); err != nil {
		return err
	}

	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{"object_url": event.ObjectURL, "reason": event.Reason})
		p.logg.Info(logCtx, "published photo deletion event")
	}
	return nil
}
