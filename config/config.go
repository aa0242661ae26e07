// Package config loads the manifestsync configuration.
//
// A configuration file is written in CUE or YAML and checked against an
// embedded CUE schema that also supplies every default. A missing file
// yields the defaults:
//
//	cfg, err := config.Load(ctx, fsys, "manifestsync.cue")
//	if err != nil {
//	    return err
//	}
//	engineCfg := cfg.Engine()
package config

import (
	"context"
	_ "embed"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/engine"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded configuration.
type Config struct {
	Version     string      `json:"version"`
	StateDir    string      `json:"stateDir"`
	Credentials Credentials `json:"credentials"`
	Repo        Repo        `json:"repo"`
	Pool        Pool        `json:"pool"`
	Auth        Auth        `json:"auth"`
	Fetch       Fetch       `json:"fetch"`
	Gateway     Gateway     `json:"gateway"`
	Metrics     Metrics     `json:"metrics"`
	Events      Events      `json:"events"`
	Log         Log         `json:"log"`
	Push        Push        `json:"push"`
}

// Credentials locates the account list and the per-account client files.
type Credentials struct {
	// Location is the directory holding sentry and token files.
	Location string `json:"location"`

	// Source is "file" or "aws".
	Source string `json:"source"`

	// File is the account list read by the file source, relative to the state dir.
	File string `json:"file"`

	// SecretID, Region and Endpoint configure the aws source.
	SecretID string `json:"secretId"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
}

// Repo describes the artifact repository.
type Repo struct {
	Dir      string   `json:"dir"`
	Remote   string   `json:"remote"`
	Baseline string   `json:"baseline"`
	Auth     RepoAuth `json:"auth"`
}

// RepoAuth holds remote credentials. The token itself is read from the
// environment variable named by TokenEnv.
type RepoAuth struct {
	Username                 string `json:"username"`
	TokenEnv                 string `json:"tokenEnv"`
	SSHKey                   string `json:"sshKey"`
	SSHInsecureIgnoreHostKey bool   `json:"sshInsecureIgnoreHostKey"`
}

// Pool sizes the account and fetch pools.
type Pool struct {
	Accounts      int    `json:"accounts"`
	Fetches       int    `json:"fetches"`
	Cooldown      string `json:"cooldown"`
	FlushInterval string `json:"flushInterval"`
}

// Auth bounds login attempts.
type Auth struct {
	Attempts int    `json:"attempts"`
	Backoff  string `json:"backoff"`
}

// Fetch bounds enumeration and download retries.
type Fetch struct {
	Retries    int    `json:"retries"`
	RetryDelay string `json:"retryDelay"`
}

// Gateway locates the protocol bridge.
type Gateway struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

// Metrics configures the metrics endpoint; an empty Addr disables it.
type Metrics struct {
	Addr string `json:"addr"`
}

// Events configures event publishing; an empty URL disables it.
type Events struct {
	URL    string `json:"url"`
	Stream string `json:"stream"`
}

// Log configures logging.
type Log struct {
	Level string `json:"level"`
}

// Push configures the reconcile tool.
type Push struct {
	// Mode is "gogit" or "cli".
	Mode      string `json:"mode"`
	Workers   int    `json:"workers"`
	MaxPasses int    `json:"maxPasses"`
}

// Load reads and validates the configuration at path. An empty path or a
// missing file yields the defaults.
func Load(ctx context.Context, fsys ReadFS, path string) (*Config, error) {
	return newLoader().load(ctx, fsys, path)
}

// Default returns the default configuration.
func Default() *Config {
	cfg, err := newLoader().parse("defaults.cue", nil)
	if err != nil {
		panic("config: embedded schema is invalid: " + err.Error())
	}
	return cfg
}

// Engine returns the engine settings. Durations were checked by Validate.
// A cooldown of zero or less disables it.
func (c *Config) Engine() engine.Config {
	cooldown := duration(c.Pool.Cooldown)
	if cooldown <= 0 {
		cooldown = -1
	}
	return engine.Config{
		Cooldown:        cooldown,
		MaxAuthAttempts: c.Auth.Attempts,
		AuthBackoff:     duration(c.Auth.Backoff),
		FetchRetries:    c.Fetch.Retries,
		FetchRetryDelay: duration(c.Fetch.RetryDelay),
		Accounts:        c.Pool.Accounts,
		Fetches:         int64(c.Pool.Fetches),
		FlushInterval:   duration(c.Pool.FlushInterval),
	}
}

// GatewayTimeout returns the gateway request timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return duration(c.Gateway.Timeout)
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
