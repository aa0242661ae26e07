package engine

import "time"

// Config tunes the engine. Zero fields take the defaults of DefaultConfig.
type Config struct {
	// Cooldown is how long an account that found nothing new is left alone.
	// A negative value disables it.
	Cooldown time.Duration

	// MaxAuthAttempts bounds login attempts per account and run.
	MaxAuthAttempts int

	// AuthBackoff is multiplied by the attempt number between logins.
	AuthBackoff time.Duration

	// FetchRetries bounds attempts of enumeration and artifact calls.
	FetchRetries int

	// FetchRetryDelay is the fixed wait between those attempts.
	FetchRetryDelay time.Duration

	// Accounts is the number of drivers running at once.
	Accounts int

	// Fetches is the number of tasks running at once across all drivers.
	Fetches int64

	// FlushInterval is the period of state flushes during a run.
	FlushInterval time.Duration
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:        24 * time.Hour,
		MaxAuthAttempts: 5,
		AuthBackoff:     time.Second,
		FetchRetries:    5,
		FetchRetryDelay: time.Second,
		Accounts:        8,
		Fetches:         32,
		FlushInterval:   time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Cooldown < 0 {
		c.Cooldown = 0
	} else if c.Cooldown == 0 {
		c.Cooldown = d.Cooldown
	}
	if c.MaxAuthAttempts <= 0 {
		c.MaxAuthAttempts = d.MaxAuthAttempts
	}
	if c.AuthBackoff <= 0 {
		c.AuthBackoff = d.AuthBackoff
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = d.FetchRetries
	}
	if c.FetchRetryDelay <= 0 {
		c.FetchRetryDelay = d.FetchRetryDelay
	}
	if c.Accounts <= 0 {
		c.Accounts = d.Accounts
	}
	if c.Fetches <= 0 {
		c.Fetches = d.Fetches
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
	return c
}
