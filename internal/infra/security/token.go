package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAccessToken indicates the token failed signature or claim validation.
var ErrInvalidAccessToken = errors.New("invalid access token")

// ErrExpiredAccessToken indicates the token is past its expiry.
var ErrExpiredAccessToken = errors.New("access token expired")

// AccessTokenClaims augments registered claims with Paire identity context.
type AccessTokenClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates Shield-issued HS256 access tokens. It is the
// primary authentication stage; the session gate only runs behind it.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenVerifier constructs a verifier for the shared signing secret.
func NewTokenVerifier(secret, issuer, audience string) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &TokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// ParseAccessToken validates the JWT access token and returns its claims.
func (v *TokenVerifier) ParseAccessToken(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// SignAccessToken mints a token with the verifier's secret. Intended for
// tests and local development; Shield is the production issuer.
func (v *TokenVerifier) SignAccessToken(claims AccessTokenClaims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	if len(claims.Audience) == 0 && v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
