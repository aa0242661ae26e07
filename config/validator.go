package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
)

// Validate checks what the schema cannot express: version compatibility,
// duration syntax and the fields required by the chosen sources.
func (c *Config) Validate() error {
	var problems []string

	if ok, err := IsCompatible(c.Version); err != nil {
		problems = append(problems, err.Error())
	} else if !ok {
		problems = append(problems, fmt.Sprintf("config version %s is not compatible with schema %s", c.Version, SchemaVersion))
	}

	for field, value := range map[string]string{
		"pool.cooldown":      c.Pool.Cooldown,
		"pool.flushInterval": c.Pool.FlushInterval,
		"auth.backoff":       c.Auth.Backoff,
		"fetch.retryDelay":   c.Fetch.RetryDelay,
		"gateway.timeout":    c.Gateway.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", field, err))
		}
	}

	if c.Credentials.Source == "aws" && c.Credentials.SecretID == "" {
		problems = append(problems, "credentials.secretId is required when credentials.source is aws")
	}
	if c.Credentials.Location == "" {
		problems = append(problems, "credentials.location must not be empty")
	}
	if c.Gateway.URL == "" {
		problems = append(problems, "gateway.url must not be empty")
	}
	if c.Repo.Remote == "" || c.Repo.Baseline == "" {
		problems = append(problems, "repo.remote and repo.baseline must not be empty")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return errors.New(errors.CodeInvalidConfig,
			"configuration validation failed: "+strings.Join(problems, "; "))
	}
	return nil
}
