package session

import "time"

// Config holds session settings loadable from the environment.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"sid"`
	Lifetime        time.Duration `env:"SESSION_LIFETIME" envDefault:"720h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
	SecureCookies   bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		Lifetime:        30 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		SecureCookies:   false,
	}
}
