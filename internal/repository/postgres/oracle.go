package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const sessionsTable = "shield.sessions"

// SessionOracle answers revocation checks straight from the Shield session
// table. Used when the gate runs next to the shared Paire database instead
// of calling the Shield service over HTTP.
type SessionOracle struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewSessionOracle constructs an oracle backed by any executor that satisfies pgExecutor.
func NewSessionOracle(exec pgExecutor) *SessionOracle {
	return &SessionOracle{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (o *SessionOracle) WithClock(now func() time.Time) *SessionOracle {
	if now != nil {
		o.now = now
	}
	return o
}

// IsSessionValid reports whether the session exists, has not been revoked,
// and has not expired. An unknown session is invalid, not an error.
func (o *SessionOracle) IsSessionValid(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}

	sqlStmt, args, err := o.builder.
		Select("revoked_at", "expires_at").
		From(sessionsTable).
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build session lookup: %w", err)
	}

	var revokedAt *time.Time
	var expiresAt time.Time
	if err := o.exec.QueryRow(ctx, sqlStmt, args...).Scan(&revokedAt, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query session: %w", err)
	}

	if revokedAt != nil {
		return false, nil
	}
	if !o.now().Before(expiresAt) {
		return false, nil
	}

	return true, nil
}
