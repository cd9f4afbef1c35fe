package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	streamName = "CATALOG_EVENTS"

	ImportCompleted = "catalog.import.completed"
	ImportFailed    = "catalog.import.failed"
)

// ImportEvent describes the outcome of one upload attempt
type ImportEvent struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	JobID      string    `json:"jobId,omitempty"`
	FileName   string    `json:"fileName"`
	Count      int       `json:"count"`
	Error      string    `json:"error,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits catalog import events over NATS JetStream. A nil
// Publisher is valid and drops every event, so callers never guard.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the catalog stream exists
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("Disconnected from NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"catalog.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to ensure catalog stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "catalog-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}

// Connected reports whether the publisher holds a live NATS connection
func (p *Publisher) Connected() bool {
	return p != nil && p.nc != nil && p.nc.IsConnected()
}

// PublishImportCompleted publishes a catalog.import.completed event
func (p *Publisher) PublishImportCompleted(jobID, fileName, requestID string, count int) {
	p.publish(&ImportEvent{
		EventID:    uuid.New().String(),
		EventType:  ImportCompleted,
		JobID:      jobID,
		FileName:   fileName,
		Count:      count,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishImportFailed publishes a catalog.import.failed event
func (p *Publisher) PublishImportFailed(jobID, fileName, requestID string, cause error) {
	event := &ImportEvent{
		EventID:    uuid.New().String(),
		EventType:  ImportFailed,
		JobID:      jobID,
		FileName:   fileName,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	p.publish(event)
}

// publish emits the event asynchronously so upload handling never
// blocks on the broker
func (p *Publisher) publish(event *ImportEvent) {
	if p == nil || p.js == nil {
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal import event")
			return
		}

		if _, err := p.js.Publish(pubCtx, event.EventType, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"fileName":  event.FileName,
			}).WithError(err).Error("Failed to publish import event")
			return
		}

		p.logger.WithFields(logrus.Fields{
			"eventType": event.EventType,
			"fileName":  event.FileName,
			"count":     event.Count,
		}).Info("Import event published")
	}()
}
