package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Port != 8081 {
		t.Fatalf("expected default port 8081, got %d", cfg.App.Port)
	}
	if cfg.Gate.CacheTTL != time.Minute {
		t.Fatalf("expected default cache ttl 1m, got %v", cfg.Gate.CacheTTL)
	}
	if cfg.Gate.OracleTimeout != 3*time.Second {
		t.Fatalf("expected default oracle timeout 3s, got %v", cfg.Gate.OracleTimeout)
	}
	if cfg.Gate.CacheKeyPrefix != "shield:session_valid" {
		t.Fatalf("unexpected default key prefix %q", cfg.Gate.CacheKeyPrefix)
	}
	if cfg.Oracle.Mode != "http" {
		t.Fatalf("expected default oracle mode http, got %q", cfg.Oracle.Mode)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("expected default cache backend memory, got %q", cfg.Cache.Backend)
	}

	found := false
	for _, route := range cfg.Gate.PublicRoutes {
		if route == "/api/auth/login" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected /api/auth/login in default public routes, got %v", cfg.Gate.PublicRoutes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAIRE_APP_PORT", "9090")
	t.Setenv("PAIRE_GATE_CACHE_TTL", "30s")
	t.Setenv("PAIRE_GATE_ORACLE_TIMEOUT", "500ms")
	t.Setenv("PAIRE_ORACLE_MODE", "postgres")
	t.Setenv("PAIRE_CACHE_BACKEND", "redis")
	t.Setenv("PAIRE_JWT_SECRET", "override-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.App.Port)
	}
	if cfg.Gate.CacheTTL != 30*time.Second {
		t.Fatalf("expected cache ttl 30s, got %v", cfg.Gate.CacheTTL)
	}
	if cfg.Gate.OracleTimeout != 500*time.Millisecond {
		t.Fatalf("expected oracle timeout 500ms, got %v", cfg.Gate.OracleTimeout)
	}
	if cfg.Oracle.Mode != "postgres" {
		t.Fatalf("expected oracle mode postgres, got %q", cfg.Oracle.Mode)
	}
	if cfg.Cache.Backend != "redis" {
		t.Fatalf("expected cache backend redis, got %q", cfg.Cache.Backend)
	}
	if cfg.JWT.Secret != "override-secret" {
		t.Fatalf("expected jwt secret override, got %q", cfg.JWT.Secret)
	}
}

func TestLoad_UnprefixedEnvAccepted(t *testing.T) {
	t.Setenv("GATE_CACHE_KEY_PREFIX", "custom:prefix")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Gate.CacheKeyPrefix != "custom:prefix" {
		t.Fatalf("expected unprefixed env var to apply, got %q", cfg.Gate.CacheKeyPrefix)
	}
}
