package port

import "context"

// RevocationOracle answers whether a login session is still active, i.e. not
// logged out, expired, or forcibly revoked. Implementations typically reach
// the Shield identity service over the network or query the session store
// directly, so callers must bound the call with a context deadline.
type RevocationOracle interface {
	IsSessionValid(ctx context.Context, sessionID string) (bool, error)
}
