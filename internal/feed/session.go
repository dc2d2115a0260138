package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
)

// Session tokens are valid for 24 hours. When the token itself does not say
// when it expires, cache it a little short of that so we re-authenticate before
// the feed starts rejecting us.
const (
	defaultSessionTTL = 23*time.Hour + 30*time.Minute
	sessionExpiry     = 30 * time.Minute // safety margin before a declared expiry
)

// SessionManager acquires and caches the realtime feed's session credential in
// process memory. Credentials come exclusively from configuration; callers
// never supply them.
type SessionManager struct {
	cfg    *config.RealtimeConfig
	client *resty.Client
	logger zerolog.Logger

	mu         sync.Mutex
	token      string
	validUntil time.Time
}

// NewSessionManager creates a session manager for the configured realtime feed.
func NewSessionManager(cfg *config.RealtimeConfig, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
}

// Token returns a valid session token, authenticating only when the cached one
// has expired or is about to.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.validUntil) {
		return m.token, nil
	}

	var auth authResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"name":     m.cfg.Username,
			"password": m.cfg.Password,
		}).
		SetResult(&auth).
		Post(m.cfg.AuthURL)
	if err != nil {
		return "", fmt.Errorf("realtime auth: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("realtime auth rejected: %s", resp.Status())
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("realtime auth returned no token")
	}

	m.token = auth.AccessToken
	m.validUntil = tokenValidUntil(auth.AccessToken)
	m.logger.Debug().Time("valid_until", m.validUntil).Msg("realtime session refreshed")

	return m.token, nil
}

// Invalidate drops the cached token, forcing re-authentication on next use.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.validUntil = time.Time{}
}

// tokenValidUntil derives the cache horizon from the token's exp claim when the
// credential is a JWT, falling back to the documented 24h validity otherwise.
func tokenValidUntil(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time.Add(-sessionExpiry)
		}
	}
	return time.Now().Add(defaultSessionTTL)
}
