package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
	"github.com/alexkola94/Paire-sub020/internal/infra/config"
)

const schemaVersion = "1.0"

const sessionRejectedEventType = "shield.gate.session_rejected"

// AuditPublisher implements port.AuditPublisher using Kafka.
type AuditPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewAuditPublisher constructs a Kafka-backed audit event publisher.
func NewAuditPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *AuditPublisher) publish(ctx context.Context, eventType, userID, traceID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if traceID != "" {
		metadata["trace_id"] = traceID
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishSessionRejected publishes shield.gate.session_rejected events.
// Session identifiers are expected to arrive masked.
func (p *AuditPublisher) PublishSessionRejected(ctx context.Context, event domain.SessionRejectedEvent) error {
	payload := struct {
		SessionID  string    `json:"session_id"`
		UserID     string    `json:"user_id,omitempty"`
		Method     string    `json:"method"`
		Path       string    `json:"path"`
		RejectedAt time.Time `json:"rejected_at"`
	}{
		SessionID:  event.SessionID,
		UserID:     event.UserID,
		Method:     event.Method,
		Path:       event.Path,
		RejectedAt: event.RejectedAt.UTC(),
	}

	return p.publish(ctx, sessionRejectedEventType, event.UserID, event.TraceID, event.RejectedAt, payload)
}
