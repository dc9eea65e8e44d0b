package interceptors

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/alexkola94/Paire-sub020/internal/infra/config"
	"github.com/alexkola94/Paire-sub020/internal/infra/security"
	"github.com/alexkola94/Paire-sub020/internal/repository/memory"
	"github.com/alexkola94/Paire-sub020/internal/usecase"
)

type stubOracle struct {
	valid map[string]bool
	calls int
}

func (o *stubOracle) IsSessionValid(_ context.Context, sessionID string) (bool, error) {
	o.calls++
	return o.valid[sessionID], nil
}

func newChain(t *testing.T, oracle *stubOracle, allow []string) (grpc.UnaryServerInterceptor, grpc.UnaryServerInterceptor, *security.TokenVerifier) {
	t.Helper()

	verifier, err := security.NewTokenVerifier("grpc-test-secret", "", "")
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	cache := memory.NewValidityCache(0)
	t.Cleanup(func() { _ = cache.Close() })

	gate := usecase.NewGateService(config.GateSettings{
		CacheTTL:      time.Minute,
		OracleTimeout: time.Second,
	}, security.NewClaimsDecoder(), oracle, cache, zap.NewNop())

	auth := NewAuthInterceptor(verifier, AuthOptions{AllowMethods: allow})
	sessionGate := NewSessionGateInterceptor(gate, SessionGateOptions{AllowMethods: allow})

	return auth.Unary(), sessionGate.Unary(), verifier
}

func invokeChain(ctx context.Context, auth, gate grpc.UnaryServerInterceptor, method string) (interface{}, error) {
	info := &grpc.UnaryServerInfo{FullMethod: method}
	return auth(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return gate(ctx, req, info, func(context.Context, interface{}) (interface{}, error) {
			return "ok", nil
		})
	})
}

func ctxWithBearer(t *testing.T, verifier *security.TokenVerifier, sessionID string) context.Context {
	t.Helper()

	token, err := verifier.SignAccessToken(security.AccessTokenClaims{
		UserID:    "user-1",
		SessionID: sessionID,
	}, time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}

	md := metadata.Pairs(authorizationKey, "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptorChain_ValidSession(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s1": true}}
	auth, gate, verifier := newChain(t, oracle, nil)

	resp, err := invokeChain(ctxWithBearer(t, verifier, "s1"), auth, gate, "/paire.v1.Expenses/List")
	if err != nil {
		t.Fatalf("expected the call to pass, got %v", err)
	}
	if resp != "ok" {
		t.Fatalf("handler was not reached")
	}
	if oracle.calls != 1 {
		t.Fatalf("expected one oracle call, got %d", oracle.calls)
	}
}

func TestInterceptorChain_RevokedSession(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s2": false}}
	auth, gate, verifier := newChain(t, oracle, nil)

	_, err := invokeChain(ctxWithBearer(t, verifier, "s2"), auth, gate, "/paire.v1.Expenses/List")
	if err == nil {
		t.Fatalf("expected the revoked session to be rejected")
	}
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", got)
	}
}

func TestInterceptorChain_MissingMetadata(t *testing.T) {
	oracle := &stubOracle{}
	auth, gate, _ := newChain(t, oracle, nil)

	_, err := invokeChain(context.Background(), auth, gate, "/paire.v1.Expenses/List")
	if err == nil {
		t.Fatalf("expected rejection without credentials")
	}
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", got)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call, got %d", oracle.calls)
	}
}

func TestInterceptorChain_AllowedMethodBypassesBoth(t *testing.T) {
	oracle := &stubOracle{}
	auth, gate, _ := newChain(t, oracle, []string{"/grpc.health.v1.Health/Check"})

	resp, err := invokeChain(context.Background(), auth, gate, "/grpc.health.v1.Health/Check")
	if err != nil {
		t.Fatalf("expected the allow-listed method to pass, got %v", err)
	}
	if resp != "ok" {
		t.Fatalf("handler was not reached")
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call, got %d", oracle.calls)
	}
}

func TestSessionGateInterceptor_CacheHitSkipsOracle(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s1": true}}
	auth, gate, verifier := newChain(t, oracle, nil)

	ctx := ctxWithBearer(t, verifier, "s1")
	for i := 0; i < 3; i++ {
		if _, err := invokeChain(ctx, auth, gate, "/paire.v1.Expenses/List"); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	if oracle.calls != 1 {
		t.Fatalf("expected a single oracle call across cached requests, got %d", oracle.calls)
	}
}

func TestSessionGateInterceptor_TokenWithoutSessionClaim(t *testing.T) {
	oracle := &stubOracle{}
	auth, gate, verifier := newChain(t, oracle, nil)

	if _, err := invokeChain(ctxWithBearer(t, verifier, ""), auth, gate, "/paire.v1.Expenses/List"); err != nil {
		t.Fatalf("expected token without session tracking to pass, got %v", err)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call, got %d", oracle.calls)
	}
}

func TestAuthInterceptor_NonBearerScheme(t *testing.T) {
	oracle := &stubOracle{}
	auth, gate, _ := newChain(t, oracle, nil)

	md := metadata.Pairs(authorizationKey, "Basic dXNlcjpwYXNz")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := invokeChain(ctx, auth, gate, "/paire.v1.Expenses/List")
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", got)
	}
}

func TestClaimsFromContext_RoundTrip(t *testing.T) {
	claims := &security.AccessTokenClaims{UserID: "user-1", SessionID: "s1"}
	ctx := WithClaims(context.Background(), claims)

	got, ok := ClaimsFromContext(ctx)
	if !ok {
		t.Fatalf("expected claims in context")
	}
	if got.SessionID != "s1" {
		t.Fatalf("unexpected session id %q", got.SessionID)
	}

	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Fatalf("expected no claims in a bare context")
	}
}
