package domain

import "net/http"

// Claims is the loosely-typed claim set decoded from a bearer credential.
// The gate never trusts these claims for identity; it only reads the session
// identifier to run the revocation check.
type Claims struct {
	SessionID string
	UserID    string
	Raw       map[string]any
}

// HasSession reports whether the credential carries a session identifier.
func (c *Claims) HasSession() bool {
	return c != nil && c.SessionID != ""
}

// GateRequest is the slice of an inbound request the session gate inspects.
// Authenticated reflects the upstream credential-validation stage; the gate
// never performs primary authentication itself.
type GateRequest struct {
	Method        string
	Path          string
	Authorization string
	Authenticated bool
}

// Outcome enumerates the possible gate decisions.
type Outcome string

const (
	OutcomePass   Outcome = "pass"
	OutcomeReject Outcome = "reject"
)

// Decision reasons, recorded for logs and metrics.
const (
	ReasonPublicRoute     = "public_route"
	ReasonPreflight       = "preflight"
	ReasonUnauthenticated = "unauthenticated"
	ReasonNoCredential    = "no_credential"
	ReasonUndecodable     = "undecodable_credential"
	ReasonNoSessionClaim  = "no_session_claim"
	ReasonCacheHit        = "cache_hit"
	ReasonOracleValid     = "oracle_valid"
	ReasonSessionRevoked  = "session_revoked"
	ReasonFailOpen        = "fail_open"
)

// RejectedSessionMessage is the body text returned to callers whose session
// has been revoked or has expired server-side.
const RejectedSessionMessage = "Session expired or revoked. Please log in again."

// Decision is the gate's verdict for a single request.
type Decision struct {
	Outcome   Outcome
	Reason    string
	SessionID string
	Status    int
	Message   string
}

// Allowed reports whether the request may continue down the pipeline.
func (d Decision) Allowed() bool {
	return d.Outcome != OutcomeReject
}

// PassDecision builds a pass-through decision with the supplied reason.
func PassDecision(reason, sessionID string) Decision {
	return Decision{Outcome: OutcomePass, Reason: reason, SessionID: sessionID}
}

// RejectDecision builds the canonical 401 rejection for a revoked session.
func RejectDecision(sessionID string) Decision {
	return Decision{
		Outcome:   OutcomeReject,
		Reason:    ReasonSessionRevoked,
		SessionID: sessionID,
		Status:    http.StatusUnauthorized,
		Message:   RejectedSessionMessage,
	}
}
