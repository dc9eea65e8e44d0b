package port

import "github.com/alexkola94/Paire-sub020/internal/core/domain"

// CredentialDecoder extracts claims from a bearer token without verifying its
// signature. Signature verification belongs to the upstream authentication
// stage; the gate only needs the session-identifier claim.
type CredentialDecoder interface {
	DecodeClaims(token string) (*domain.Claims, error)
}
