// Package events publishes discussion domain events to NATS JetStream.
// Publishing is fire-and-forget: a failed publish is logged and never
// fails the request that produced the event.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const StreamName = "DISCUSSION"

const (
	SubjectUserRegistered = "discussion.user.registered"
	SubjectPostCreated    = "discussion.post.created"
	SubjectPostUpdated    = "discussion.post.updated"
	SubjectPostDeleted    = "discussion.post.deleted"
	SubjectCommentCreated = "discussion.comment.created"
	SubjectCommentUpdated = "discussion.comment.updated"
	SubjectCommentDeleted = "discussion.comment.deleted"
)

// Event is the envelope sent to every discussion.* subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

type asyncPublisher interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// Publisher is safe to use as a nil pointer; every call is then a no-op.
type Publisher struct {
	js  asyncPublisher
	log *zap.Logger
	now func() time.Time
}

// New wraps a JetStream context. js=nil yields a no-op publisher.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{log: log, now: time.Now}
	if js != nil {
		p.js = js
	}
	return p
}

func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: p.now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// EnsureStream creates or updates the DISCUSSION stream covering discussion.>.
func EnsureStream(js nats.JetStreamManager, log *zap.Logger) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"discussion.>"},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	}

	_, err := js.AddStream(cfg)
	if err == nil {
		log.Info("events: stream created", zap.String("stream", StreamName))
		return nil
	}
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		if _, err := js.UpdateStream(cfg); err != nil {
			log.Warn("events: stream update failed", zap.Error(err))
		}
		return nil
	}
	return err
}
