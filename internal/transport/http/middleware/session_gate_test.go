package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
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

func newGateRouter(t *testing.T, oracle *stubOracle) (*gin.Engine, *security.TokenVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := security.NewTokenVerifier("gate-test-secret", "", "")
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	cache := memory.NewValidityCache(0)
	t.Cleanup(func() { _ = cache.Close() })

	gate := usecase.NewGateService(config.GateSettings{
		CacheTTL:      time.Minute,
		OracleTimeout: time.Second,
		PublicRoutes:  []string{"/api/auth/login"},
	}, security.NewClaimsDecoder(), oracle, cache, zap.NewNop())

	router := gin.New()
	router.Use(EnrichContext())

	router.POST("/api/auth/login", SessionGate(gate), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	protected := router.Group("/api")
	protected.Use(RequireAuth(verifier), SessionGate(gate))
	protected.GET("/expenses", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router, verifier
}

func bearerFor(t *testing.T, verifier *security.TokenVerifier, sessionID string) string {
	t.Helper()

	token, err := verifier.SignAccessToken(security.AccessTokenClaims{
		UserID:    "user-1",
		SessionID: sessionID,
	}, time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	return "Bearer " + token
}

func TestSessionGate_ValidSessionPasses(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s1": true}}
	router, verifier := newGateRouter(t, oracle)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", bearerFor(t, verifier, "s1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if oracle.calls != 1 {
		t.Fatalf("expected one oracle call, got %d", oracle.calls)
	}
}

func TestSessionGate_RevokedSessionRejectedWithMessage(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s2": false}}
	router, verifier := newGateRouter(t, oracle)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", bearerFor(t, verifier, "s2"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Error != domain.RejectedSessionMessage {
		t.Fatalf("unexpected rejection message: %q", body.Error)
	}
	if body.TraceID == "" {
		t.Fatalf("expected a trace id in the error body")
	}
}

func TestSessionGate_CacheHitSkipsOracle(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{"s1": true}}
	router, verifier := newGateRouter(t, oracle)

	header := bearerFor(t, verifier, "s1")
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	if oracle.calls != 1 {
		t.Fatalf("expected a single oracle call across cached requests, got %d", oracle.calls)
	}
}

func TestSessionGate_PublicRouteSkipsEverything(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{}}
	router, _ := newGateRouter(t, oracle)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on public route, got %d", rec.Code)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call for a public route, got %d", oracle.calls)
	}
}

func TestSessionGate_TokenWithoutSessionClaimPasses(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{}}
	router, verifier := newGateRouter(t, oracle)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", bearerFor(t, verifier, ""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a token without session tracking, got %d", rec.Code)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call, got %d", oracle.calls)
	}
}

func TestRequireAuth_RejectsBeforeGateRuns(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{}}
	router, _ := newGateRouter(t, oracle)

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call for unauthenticated request, got %d", oracle.calls)
	}
}

func TestRequireAuth_InvalidSignature(t *testing.T) {
	oracle := &stubOracle{valid: map[string]bool{}}
	router, _ := newGateRouter(t, oracle)

	other, err := security.NewTokenVerifier("another-secret", "", "")
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", bearerFor(t, other, "s1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged token, got %d", rec.Code)
	}
}
