package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, SchemaVersion, cfg.Version)
	assert.Equal(t, "client", cfg.Credentials.Location)
	assert.Equal(t, "file", cfg.Credentials.Source)
	assert.Equal(t, "origin", cfg.Repo.Remote)
	assert.Equal(t, "app", cfg.Repo.Baseline)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "gogit", cfg.Push.Mode)

	e := cfg.Engine()
	assert.Equal(t, 24*time.Hour, e.Cooldown)
	assert.Equal(t, 8, e.Accounts)
	assert.EqualValues(t, 32, e.Fetches)
	assert.Equal(t, 5, e.MaxAuthAttempts)
	assert.Equal(t, time.Second, e.FlushInterval)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode errors.ErrorCode
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "cue overrides",
			file: "manifestsync.cue",
			content: `
pool: {
	accounts: 2
	cooldown: "1h"
}
log: level: "DEBUG"
push: mode: "cli"
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.Pool.Accounts)
				assert.Equal(t, 32, cfg.Pool.Fetches)
				assert.Equal(t, time.Hour, cfg.Engine().Cooldown)
				assert.Equal(t, "DEBUG", cfg.Log.Level)
				assert.Equal(t, "cli", cfg.Push.Mode)
			},
		},
		{
			name:    "zero cooldown disables it",
			file:    "manifestsync.cue",
			content: `pool: cooldown: "0"`,
			validate: func(t *testing.T, cfg *Config) {
				e := cfg.Engine()
				assert.Negative(t, e.Cooldown)
				assert.Equal(t, 24*time.Hour, Default().Engine().Cooldown)
			},
		},
		{
			name: "yaml",
			file: "manifestsync.yaml",
			content: `
credentials:
  source: aws
  secretId: prod/accounts
  region: eu-west-1
events:
  url: nats://127.0.0.1:4222
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "aws", cfg.Credentials.Source)
				assert.Equal(t, "prod/accounts", cfg.Credentials.SecretID)
				assert.Equal(t, "eu-west-1", cfg.Credentials.Region)
				assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.URL)
				assert.Equal(t, "MANIFESTSYNC", cfg.Events.Stream)
			},
		},
		{
			name:    "missing file yields defaults",
			file:    "absent.cue",
			content: "",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name:     "unknown field",
			file:     "manifestsync.cue",
			content:  `pool: threads: 4`,
			wantCode: errors.CodeSchemaFailed,
		},
		{
			name:     "non positive pool",
			file:     "manifestsync.cue",
			content:  `pool: accounts: 0`,
			wantCode: errors.CodeSchemaFailed,
		},
		{
			name:     "unknown level",
			file:     "manifestsync.cue",
			content:  `log: level: "TRACE"`,
			wantCode: errors.CodeSchemaFailed,
		},
		{
			name:     "bad duration",
			file:     "manifestsync.cue",
			content:  `pool: cooldown: "tomorrow"`,
			wantCode: errors.CodeSchemaFailed,
		},
		{
			name:     "syntax error",
			file:     "manifestsync.cue",
			content:  `pool: {`,
			wantCode: errors.CodeCUELoadFailed,
		},
		{
			name:     "aws without secret",
			file:     "manifestsync.cue",
			content:  `credentials: source: "aws"`,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "incompatible version",
			file:     "manifestsync.cue",
			content:  `version: "0.2.0"`,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:    "compatible patch version",
			file:    "manifestsync.cue",
			content: `version: "0.1.7"`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.1.7", cfg.Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := billy.NewInMemoryFS()
			if tt.content != "" {
				require.NoError(t, fsys.WriteFile(tt.file, []byte(tt.content), 0o644))
			}

			cfg, err := Load(context.Background(), fsys, tt.file)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Credentials.Source = "aws"
	cfg.Gateway.URL = ""
	cfg.Auth.Backoff = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "credentials.secretId")
	assert.Contains(t, err.Error(), "gateway.url")
	assert.Contains(t, err.Error(), "auth.backoff")
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
		wantErr bool
	}{
		{version: "0.1.0", want: true},
		{version: "0.1.9", want: true},
		{version: "0.2.0", want: false},
		{version: "1.0.0", want: false},
		{version: "latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := IsCompatible(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscover(t *testing.T) {
	fsys := billy.NewInMemoryFS()

	p, err := Discover(fsys, "", "work")
	require.NoError(t, err)
	assert.Empty(t, p)

	require.NoError(t, fsys.WriteFile("work/manifestsync.yaml", []byte("{}"), 0o644))
	p, err = Discover(fsys, "", "work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("work", "manifestsync.yaml"), p)

	require.NoError(t, fsys.WriteFile("work/manifestsync.cue", []byte(""), 0o644))
	p, err = Discover(fsys, "", "work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("work", FileName), p)

	_, err = Discover(fsys, "elsewhere.cue", "work")
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	p, err = Discover(fsys, "work/manifestsync.cue", "work")
	require.NoError(t, err)
	assert.Equal(t, "work/manifestsync.cue", p)
}
