package csrf

// Config provides environment-based configuration for the guard.
type Config struct {
	AllowedOrigins []string `env:"CSRF_ALLOWED_ORIGINS" envSeparator:","`
	HeaderName     string   `env:"CSRF_HEADER_NAME" envDefault:"X-CSRF-Token"`
	FormField      string   `env:"CSRF_FORM_FIELD" envDefault:"csrf_token"`
}

// DefaultConfig returns the default header and form field names with an
// empty allow-list. An empty allow-list rejects every mutating request.
func DefaultConfig() Config {
	return Config{
		HeaderName: "X-CSRF-Token",
		FormField:  "csrf_token",
	}
}
