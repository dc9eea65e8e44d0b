package interceptors

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
	"github.com/alexkola94/Paire-sub020/internal/usecase"
)

// SessionGateOptions fine-tunes the session gate interceptor.
type SessionGateOptions struct {
	AllowMethods []string
	Logger       *zap.Logger
}

// SessionGateInterceptor runs the revocation check for gRPC hosts. It is
// mounted after AuthInterceptor; calls without verified claims in the
// context pass through, mirroring the HTTP pipeline.
type SessionGateInterceptor struct {
	gate   *usecase.GateService
	logger *zap.Logger
	allow  map[string]struct{}
}

// NewSessionGateInterceptor constructs the interceptor around a gate service.
func NewSessionGateInterceptor(gate *usecase.GateService, opts SessionGateOptions) *SessionGateInterceptor {
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

	return &SessionGateInterceptor{gate: gate, logger: logger, allow: allow}
}

// Unary returns a gRPC unary interceptor that enforces the session gate.
func (si *SessionGateInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if si == nil || si.gate == nil {
			return handler(ctx, req)
		}

		if _, ok := si.allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		_, authenticated := ClaimsFromContext(ctx)

		decision := si.gate.Authorize(ctx, domain.GateRequest{
			Method:        http.MethodPost,
			Path:          info.FullMethod,
			Authorization: authorizationFromMetadata(ctx),
			Authenticated: authenticated,
		})
		if !decision.Allowed() {
			si.logger.Info("gRPC session gate rejected call", zap.String("method", info.FullMethod))
			return nil, status.Error(codes.Unauthenticated, decision.Message)
		}

		return handler(ctx, req)
	}
}

func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(authorizationKey); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}
