package interceptors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alexkola94/Paire-sub020/internal/infra/security"
)

const (
	authorizationKey = "authorization"
	bearerPrefix     = "bearer "
)

// AuthOptions fine-tunes interceptor behaviour.
type AuthOptions struct {
	AllowMethods []string
	Logger       *zap.Logger
}

// AuthInterceptor is the primary authentication stage for gRPC hosts: it
// verifies the access-token signature before the session gate interceptor runs.
type AuthInterceptor struct {
	verifier *security.TokenVerifier
	logger   *zap.Logger
	allow    map[string]struct{}
}

// NewAuthInterceptor constructs a new AuthInterceptor instance.
func NewAuthInterceptor(verifier *security.TokenVerifier, opts AuthOptions) *AuthInterceptor {
	allow := make(map[string]struct{}, len(opts.AllowMethods))
	for _, method := range opts.AllowMethods {
		if method = strings.TrimSpace(method); method != "" {
			allow[method] = struct{}{}
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthInterceptor{verifier: verifier, logger: logger, allow: allow}
}

// Unary returns a gRPC unary interceptor that enforces token authentication.
func (ai *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if ai == nil || ai.verifier == nil {
			return handler(ctx, req)
		}

		if _, ok := ai.allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		token, err := tokenFromMetadata(ctx)
		if err != nil {
			ai.logger.Warn("gRPC authentication failed", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		claims, err := ai.verifier.ParseAccessToken(token)
		if err != nil {
			ai.logger.Warn("gRPC token validation failed", zap.String("method", info.FullMethod), zap.Error(err))
			switch {
			case errors.Is(err, security.ErrExpiredAccessToken):
				return nil, status.Error(codes.Unauthenticated, "access token expired")
			case errors.Is(err, security.ErrInvalidAccessToken):
				return nil, status.Error(codes.Unauthenticated, "invalid access token")
			default:
				return nil, status.Error(codes.Unauthenticated, "failed to validate access token")
			}
		}

		return handler(WithClaims(ctx, claims), req)
	}
}

// claimsContextKey stores token claims within the request context.
type claimsContextKey struct{}

// WithClaims returns a derived context containing verified token claims.
func WithClaims(ctx context.Context, claims *security.AccessTokenClaims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves verified token claims stored by the auth interceptor.
func ClaimsFromContext(ctx context.Context) (*security.AccessTokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*security.AccessTokenClaims)
	return claims, ok
}

func tokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", fmt.Errorf("missing request metadata")
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return "", fmt.Errorf("missing authorization metadata")
	}

	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return "", fmt.Errorf("missing authorization metadata")
	}

	if !strings.HasPrefix(strings.ToLower(raw), bearerPrefix) {
		return "", fmt.Errorf("authorization metadata must use bearer scheme")
	}

	token := strings.TrimSpace(raw[len(bearerPrefix):])
	if token == "" {
		return "", fmt.Errorf("missing access token")
	}

	return token, nil
}
