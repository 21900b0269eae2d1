package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	streamName    = "FORM_EVENTS"
	subjectPrefix = "forms.request"
)

// Request lifecycle event types.
const (
	RequestSubmitted   = "submitted"
	RequestResubmitted = "resubmitted"
	RequestApproved    = "approved"
	RequestRejected    = "rejected"
	RequestReturned    = "returned"
	RequestRendered    = "rendered"
)

// RequestEvent is the payload published for every request lifecycle change.
type RequestEvent struct {
	EventType   string `json:"event_type"`
	RequestID   string `json:"request_id"`
	FormCode    string `json:"form_code"`
	RequesterID string `json:"requester_id"`
	ActorID     string `json:"actor_id,omitempty"`
	Status      string `json:"status"`
	Comment     string `json:"comment,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// Publisher publishes request lifecycle events to NATS JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the form events stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("campus-approvals"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{subjectPrefix + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			logger.WithError(err).Warn("Failed to ensure FORM_EVENTS stream")
		}
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishRequestEvent publishes a single request lifecycle event. The subject
// is forms.request.<event_type>.
func (p *Publisher) PublishRequestEvent(ctx context.Context, event RequestEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, event.EventType)
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":    subject,
		"request_id": event.RequestID,
	}).Debug("Published request event")

	return nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
