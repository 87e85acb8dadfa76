package cookie

import (
	"net/http"
	"strings"
)

// Config provides environment-based configuration for the cookie manager
// and the session cookie.
type Config struct {
	Secrets    string `env:"COOKIE_SECRETS" envDefault:""`
	Path       string `env:"COOKIE_PATH" envDefault:"/"`
	Domain     string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure     bool   `env:"COOKIE_SECURE" envDefault:"true"`
	HttpOnly   bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite   string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	MaxSize    int    `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
	SessionKey string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() Config {
	return Config{
		Path:       "/",
		Secure:     true,
		HttpOnly:   true,
		SameSite:   "lax",
		MaxSize:    MaxCookieSize,
		SessionKey: "__session",
	}
}

// ParseSameSite maps "lax", "strict" and "none" to http.SameSite.
// Anything else falls back to Lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// parseSecrets splits comma-separated secrets for key rotation support.
// Empty strings are filtered out.
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a Manager from configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	configOpts := []Option{
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HttpOnly),
		WithSameSite(ParseSameSite(cfg.SameSite)),
	}
	if cfg.Path != "" {
		configOpts = append(configOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	configOpts = append(configOpts, opts...)

	m, err := New(cfg.parseSecrets(), configOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.MaxSize > 0 {
		m.maxSize = cfg.MaxSize
	}
	return m, nil
}

// NewSessionFromConfig creates the session cookie helper from configuration.
func NewSessionFromConfig(cfg Config, opts ...Option) (*SessionCookie, error) {
	m, err := NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewSessionCookie(m, cfg.SessionKey), nil
}
