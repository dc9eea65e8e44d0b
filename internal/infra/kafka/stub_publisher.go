package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
)

// StubPublisher logs audit events instead of sending them to Kafka. Used
// when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly audit publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishSessionRejected logs shield.gate.session_rejected events.
func (p *StubPublisher) PublishSessionRejected(_ context.Context, event domain.SessionRejectedEvent) error {
	at := event.RejectedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", sessionRejectedEventType),
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.UserID),
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}
