package shield

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/infra/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.OracleSettings{ShieldBaseURL: server.URL}, 2*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestClient_IsSessionValidTrue(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":true}`))
	})

	valid, err := client.IsSessionValid(context.Background(), "s1")
	if err != nil {
		t.Fatalf("IsSessionValid returned error: %v", err)
	}
	if !valid {
		t.Fatalf("expected valid session")
	}
	if gotPath != "/api/auth/validate-session/s1" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
}

func TestClient_IsSessionValidFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":false}`))
	})

	valid, err := client.IsSessionValid(context.Background(), "s2")
	if err != nil {
		t.Fatalf("IsSessionValid returned error: %v", err)
	}
	if valid {
		t.Fatalf("expected revoked session")
	}
}

func TestClient_Non200IsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.IsSessionValid(context.Background(), "s1"); err == nil {
		t.Fatalf("expected error for a 500 response")
	}
}

func TestClient_MalformedBodyIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	if _, err := client.IsSessionValid(context.Background(), "s1"); err == nil {
		t.Fatalf("expected error for a malformed body")
	}
}

func TestClient_ContextDeadlineSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		_, _ = w.Write([]byte(`{"isValid":true}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.IsSessionValid(ctx, "s1"); err == nil {
		t.Fatalf("expected error once the context deadline elapsed")
	}
}

func TestClient_SessionIDIsPathEscaped(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"isValid":true}`))
	})

	if _, err := client.IsSessionValid(context.Background(), "a/b"); err != nil {
		t.Fatalf("IsSessionValid returned error: %v", err)
	}
	if gotPath != "/api/auth/validate-session/a%2Fb" {
		t.Fatalf("unexpected escaped path: %s", gotPath)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.OracleSettings{}, time.Second, zap.NewNop()); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}
