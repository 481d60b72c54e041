package loyalty

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// TokenState is the validity of a cached token at a given instant.
type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenMalformed
	TokenExpired
	TokenValid
)

func (s TokenState) String() string {
	switch s {
	case TokenAbsent:
		return "absent"
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenValid:
		return "valid"
	}
	return "unknown"
}

// ClassifyToken reports the state of token at now. A well-formed token has
// exactly two dots; its middle segment must carry an exp claim that is not
// before now (compared in whole seconds). An unreadable payload or missing
// exp counts as expired.
func ClassifyToken(token string, now time.Time) TokenState {
	if token == "" {
		return TokenAbsent
	}
	if strings.Count(token, ".") != 2 {
		return TokenMalformed
	}
	exp, ok := tokenExpiry(token)
	if !ok || exp.Unix() < now.Unix() {
		return TokenExpired
	}
	return TokenValid
}

// tokenExpiry reads the exp claim from the middle segment only. The header
// and signature are never decoded, so any opaque outer segments are accepted.
func tokenExpiry(token string) (time.Time, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	payload, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		// standard alphabet, as issued by some non-JWT token services
		payload, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[1], "="))
		if err != nil {
			return time.Time{}, false
		}
	}

	var claims jwt.RegisteredClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// TokenManager owns the in-process token and keeps it in sync with the
// TokenStore.
type TokenManager struct {
	cfg       Config
	store     TokenStore
	transport *Transport
	logger    *slog.Logger

	mu    sync.Mutex
	token string

	refresh singleflight.Group
}

func NewTokenManager(cfg Config, store TokenStore, transport *Transport) *TokenManager {
	cfg = cfg.withDefaults()
	return &TokenManager{
		cfg:       cfg,
		store:     store,
		transport: transport,
		logger:    cfg.Logger,
	}
}

// Token returns the in-process token without validating it.
func (m *TokenManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *TokenManager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// LoadToken reads the cached token. Any store failure means "no token".
func (m *TokenManager) LoadToken(ctx context.Context) string {
	token, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Debug("no usable cached token", "error", err)
		return ""
	}
	return token
}

// SaveToken persists token. A failure is logged and returned, but the token
// stays usable in memory.
func (m *TokenManager) SaveToken(ctx context.Context, token string) error {
	if err := m.store.Save(ctx, token); err != nil {
		m.logger.Warn("saveToken exception", "error", err)
		return wrapErr(KindWriteFailure, "token.save", "could not persist token", err)
	}
	return nil
}

// RequestToken logs in with the configured credentials.
func (m *TokenManager) RequestToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Username: m.cfg.Username, Password: m.cfg.Password})
	if err != nil {
		return "", wrapErr(KindParseFailure, "token.request", "could not encode login request", err)
	}

	resp, callErr := m.transport.Call(ctx, m.cfg.Host, loginEndpoint, http.MethodPost, body, m.cfg.APIKey, "")

	if callErr != nil {
		m.logger.Warn("requestToken exception", "error", callErr)
		return "", callErr
	}

	var login loginResponse
	if err := json.Unmarshal(resp.Body, &login); err != nil {
		m.logger.Warn("requestToken exception", "statusCode", resp.StatusCode, "error", err)
		return "", wrapErr(KindParseFailure, "token.request", "login response is not valid JSON", err)
	}
	if login.Token == "" {
		m.logger.Warn("requestToken exception", "statusCode", resp.StatusCode, "reason", "no token in login response")
		return "", newErr(KindTokenMissing, "token.request", "login response has no token")
	}
	return login.Token, nil
}

// ValidateToken returns token when it is still valid, otherwise logs in and
// persists the new token. It never fails; a failed login yields "".
func (m *TokenManager) ValidateToken(ctx context.Context, token string) string {
	state := ClassifyToken(token, m.cfg.Now())
	switch state {
	case TokenValid:
		return token
	case TokenAbsent, TokenMalformed:
		m.logger.Warn("validateToken exception", "reason", state.String()+" token")
	case TokenExpired:
		m.logger.Debug("token expired, logging in")
	}

	v, _, _ := m.refresh.Do("login", func() (interface{}, error) {
		tokenRefreshes.WithLabelValues(state.String()).Inc()

		// shared by every waiter; the transport timeout bounds it
		loginCtx := context.WithoutCancel(ctx)
		fresh, err := m.RequestToken(loginCtx)
		if err != nil {
			return "", err
		}
		m.SaveToken(loginCtx, fresh)
		return fresh, nil
	})
	return v.(string)
}

// Ensure validates the in-process token and replaces it when needed.
func (m *TokenManager) Ensure(ctx context.Context) string {
	token := m.ValidateToken(ctx, m.Token())
	m.setToken(token)
	return token
}
