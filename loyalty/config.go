package loyalty

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	// requestTimeout is fixed; the remote API gives no guidance and the
	// client never retries.
	requestTimeout = 10 * time.Second

	loginEndpoint    = "login"
	customerEndpoint = "partner/customers/full"

	defaultUserAgent = "loyaltygo"
)

// Config is the immutable construction-time configuration of a Client.
type Config struct {
	APIKey   string
	Username string
	Password string
	Host     string

	// Debug echoes outgoing request headers to DebugOut and attaches the raw
	// response and token to every Result.
	Debug    bool
	DebugOut io.Writer

	// InsecureSkipVerify disables TLS certificate verification. Off by
	// default; the legacy integration ran with verification disabled.
	InsecureSkipVerify bool

	UserAgent string

	// Logger receives the operational log: one line per anomaly.
	Logger *slog.Logger

	// Now is the clock used for expiry checks and age computation.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.DebugOut == nil {
		c.DebugOut = os.Stdout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api key")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if len(missing) > 0 {
		return newErr(KindConfig, "config.validate", "missing "+strings.Join(missing, ", "))
	}
	return nil
}
