package security

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
)

// Claim names recognized when extracting the session identifier. Shield
// issues "session_id"; "sid" is accepted for tokens minted by older builds.
const (
	sessionIDClaim         = "session_id"
	sessionIDFallbackClaim = "sid"
	userIDClaim            = "uid"
)

// ClaimsDecoder reads bearer-token claims without verifying the signature.
// The upstream authentication stage has already verified it; this decoder
// only recovers the session identifier for the revocation check.
type ClaimsDecoder struct{}

// NewClaimsDecoder constructs a ClaimsDecoder.
func NewClaimsDecoder() *ClaimsDecoder {
	return &ClaimsDecoder{}
}

// DecodeClaims parses the token payload and extracts the session identifier.
func (d *ClaimsDecoder) DecodeClaims(token string) (*domain.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("parse bearer claims: %w", err)
	}

	claims := &domain.Claims{Raw: mapClaims}

	if v, ok := mapClaims[sessionIDClaim].(string); ok {
		claims.SessionID = strings.TrimSpace(v)
	}
	if claims.SessionID == "" {
		if v, ok := mapClaims[sessionIDFallbackClaim].(string); ok {
			claims.SessionID = strings.TrimSpace(v)
		}
	}

	if v, ok := mapClaims[userIDClaim].(string); ok {
		claims.UserID = strings.TrimSpace(v)
	}
	if claims.UserID == "" {
		if v, ok := mapClaims["sub"].(string); ok {
			claims.UserID = strings.TrimSpace(v)
		}
	}

	return claims, nil
}
