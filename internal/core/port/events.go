package port

import (
	"context"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
)

// AuditPublisher publishes gate audit events to the message bus.
type AuditPublisher interface {
	PublishSessionRejected(ctx context.Context, event domain.SessionRejectedEvent) error
}
