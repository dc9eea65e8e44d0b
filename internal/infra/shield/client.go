package shield

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexkola94/Paire-sub020/internal/infra/config"
)

const validateSessionPath = "/api/auth/validate-session"

// Client reaches the Shield identity service to check whether a session has
// been revoked. The embedded http.Client carries its own timeout in addition
// to the per-call context deadline the gate applies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Shield client from configuration.
func NewClient(cfg config.OracleSettings, timeout time.Duration, log *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.ShieldBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("shield base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse shield base url: %w", err)
	}

	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}, nil
}

type validateSessionResponse struct {
	IsValid bool `json:"isValid"`
}

// IsSessionValid asks Shield whether the session is still active. Any
// transport failure or non-200 response surfaces as an error so the gate can
// fail open.
func (c *Client) IsSessionValid(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}

	endpoint := fmt.Sprintf("%s%s/%s", c.baseURL, validateSessionPath, url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build shield request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call shield: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("shield responded with status %d", resp.StatusCode)
	}

	var payload validateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode shield response: %w", err)
	}

	return payload.IsValid, nil
}
