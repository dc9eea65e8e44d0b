package domain

import "time"

// SessionRejectedEvent records a request refused by the session gate.
// Session identifiers are masked before the event leaves the process.
type SessionRejectedEvent struct {
	SessionID  string
	UserID     string
	Method     string
	Path       string
	RejectedAt time.Time
	TraceID    string
}
