package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
	"github.com/alexkola94/Paire-sub020/internal/core/port"
	"github.com/alexkola94/Paire-sub020/internal/infra/config"
	"github.com/alexkola94/Paire-sub020/internal/infra/logger"
	"github.com/alexkola94/Paire-sub020/internal/infra/telemetry"
)

const (
	defaultCacheTTL       = time.Minute
	defaultOracleTimeout  = 3 * time.Second
	defaultBearerScheme   = "Bearer"
	defaultCacheKeyPrefix = "shield:session_valid"
)

// GateService guards authenticated routes by confirming, with staleness
// bounded by the cache TTL, that the session referenced by the inbound
// credential has not been revoked. It holds no per-request state and is safe
// for concurrent use.
type GateService struct {
	decoder port.CredentialDecoder
	oracle  port.RevocationOracle
	cache   port.ValidityCache
	audit   port.AuditPublisher
	metrics *telemetry.GateMetrics
	logger  *zap.Logger

	cacheTTL      time.Duration
	oracleTimeout time.Duration
	bearerScheme  string
	keyPrefix     string
	publicRoutes  []string

	now func() time.Time
}

// NewGateService constructs the session gate from its collaborators and the
// gate configuration. Settings fall back to defaults when unset.
func NewGateService(cfg config.GateSettings, decoder port.CredentialDecoder, oracle port.RevocationOracle, cache port.ValidityCache, log *zap.Logger) *GateService {
	if log == nil {
		log = zap.NewNop()
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	timeout := cfg.OracleTimeout
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	scheme := strings.TrimSpace(cfg.BearerScheme)
	if scheme == "" {
		scheme = defaultBearerScheme
	}
	prefix := strings.TrimSpace(cfg.CacheKeyPrefix)
	if prefix == "" {
		prefix = defaultCacheKeyPrefix
	}

	routes := make([]string, 0, len(cfg.PublicRoutes))
	for _, route := range cfg.PublicRoutes {
		if route = strings.ToLower(strings.TrimSpace(route)); route != "" {
			routes = append(routes, route)
		}
	}

	return &GateService{
		decoder:       decoder,
		oracle:        oracle,
		cache:         cache,
		logger:        log,
		cacheTTL:      ttl,
		oracleTimeout: timeout,
		bearerScheme:  scheme,
		keyPrefix:     prefix,
		publicRoutes:  routes,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithAuditPublisher attaches a publisher for rejection audit events.
func (s *GateService) WithAuditPublisher(publisher port.AuditPublisher) *GateService {
	s.audit = publisher
	return s
}

// WithMetrics attaches Prometheus gate collectors.
func (s *GateService) WithMetrics(metrics *telemetry.GateMetrics) *GateService {
	s.metrics = metrics
	return s
}

// WithClock overrides the time source, for tests.
func (s *GateService) WithClock(now func() time.Time) *GateService {
	if now != nil {
		s.now = now
	}
	return s
}

// Authorize decides whether the request may continue. It never returns an
// error: infrastructure failures are logged and resolved as pass-through, so
// an oracle outage degrades revocation responsiveness rather than
// availability. The only rejection it produces is the 401 for a session the
// oracle reports revoked.
func (s *GateService) Authorize(ctx context.Context, req domain.GateRequest) domain.Decision {
	if req.Method == http.MethodOptions {
		return s.pass(domain.ReasonPreflight, "")
	}
	if s.isPublicRoute(req.Path) {
		return s.pass(domain.ReasonPublicRoute, "")
	}

	// Only a second check on top of already-authenticated requests. Primary
	// authentication, including rejection of bad credentials, happens upstream.
	if !req.Authenticated {
		return s.pass(domain.ReasonUnauthenticated, "")
	}

	token, ok := s.bearerToken(req.Authorization)
	if !ok {
		return s.pass(domain.ReasonNoCredential, "")
	}

	claims, err := s.decoder.DecodeClaims(token)
	if err != nil {
		s.metrics.ObserveDecodeFailure()
		s.logger.Warn("session gate could not decode bearer claims",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return s.pass(domain.ReasonUndecodable, "")
	}
	if !claims.HasSession() {
		// Tokens without a session claim are not using session tracking.
		return s.pass(domain.ReasonNoSessionClaim, "")
	}

	sessionID := claims.SessionID
	key := s.cacheKey(sessionID)

	valid, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		return s.failOpen(req, sessionID, "validity cache lookup failed", err)
	}
	s.metrics.ObserveCacheLookup(hit)

	reason := domain.ReasonCacheHit
	if !hit {
		reason = domain.ReasonOracleValid

		valid, err = s.checkOracle(ctx, sessionID)
		if err != nil {
			s.metrics.ObserveOracleFailure()
			return s.failOpen(req, sessionID, "revocation oracle check failed", err)
		}

		// Only positive results are cached: a revoked session must not linger
		// as a negative entry once the user logs in again with a new session.
		if valid {
			if err := s.cache.Set(ctx, key, true, s.cacheTTL); err != nil {
				s.logger.Warn("session gate could not cache validity",
					zap.String("session_id", logger.MaskSessionID(sessionID)),
					zap.Error(err),
				)
			}
		}
	}

	if !valid {
		return s.reject(ctx, req, claims)
	}

	return s.pass(reason, sessionID)
}

func (s *GateService) checkOracle(ctx context.Context, sessionID string) (bool, error) {
	octx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	start := s.now()
	valid, err := s.oracle.IsSessionValid(octx, sessionID)
	s.metrics.ObserveOracleLatency(time.Since(start).Seconds())

	return valid, err
}

func (s *GateService) pass(reason, sessionID string) domain.Decision {
	s.metrics.ObserveDecision(string(domain.OutcomePass), reason)
	return domain.PassDecision(reason, sessionID)
}

// failOpen resolves infrastructure errors as pass-through so that an oracle
// outage cannot lock out the whole user base.
func (s *GateService) failOpen(req domain.GateRequest, sessionID, msg string, err error) domain.Decision {
	s.logger.Warn("session gate failing open: "+msg,
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("session_id", logger.MaskSessionID(sessionID)),
		zap.Error(err),
	)
	s.metrics.ObserveDecision(string(domain.OutcomePass), domain.ReasonFailOpen)
	return domain.PassDecision(domain.ReasonFailOpen, sessionID)
}

func (s *GateService) reject(ctx context.Context, req domain.GateRequest, claims *domain.Claims) domain.Decision {
	sessionID := claims.SessionID
	s.metrics.ObserveDecision(string(domain.OutcomeReject), domain.ReasonSessionRevoked)
	s.logger.Info("session gate rejected revoked session",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("session_id", logger.MaskSessionID(sessionID)),
	)

	if s.audit != nil {
		event := domain.SessionRejectedEvent{
			SessionID:  logger.MaskSessionID(sessionID),
			UserID:     claims.UserID,
			Method:     req.Method,
			Path:       req.Path,
			RejectedAt: s.now(),
		}
		if err := s.audit.PublishSessionRejected(ctx, event); err != nil {
			s.logger.Warn("failed to publish session rejection audit event", zap.Error(err))
		}
	}

	return domain.RejectDecision(sessionID)
}

// isPublicRoute matches the path against the allow-list, exact-prefix and
// case-insensitive.
func (s *GateService) isPublicRoute(path string) bool {
	lowered := strings.ToLower(path)
	for _, route := range s.publicRoutes {
		if strings.HasPrefix(lowered, route) {
			return true
		}
	}
	return false
}

// bearerToken extracts the token from an Authorization header value, or
// reports false when the header is absent or uses another scheme.
func (s *GateService) bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], s.bearerScheme) {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *GateService) cacheKey(sessionID string) string {
	return s.keyPrefix + ":" + sessionID
}
