package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjy612/ManifestAutoUpdate-bak/config"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	"github.com/pjy612/ManifestAutoUpdate-bak/git"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "WARNING", want: slog.LevelWarn},
		{in: "ERROR", want: slog.LevelError},
		{in: "TRACE", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	g := &globalOptions{
		credentialLocation: "/secrets/client",
		level:              "debug",
		poolNum:            3,
		metricsAddr:        ":9100",
	}

	t.Run("only changed flags apply", func(t *testing.T) {
		cfg := config.Default()
		g.apply(cfg, func(name string) bool { return name == "pool-num" })

		assert.Equal(t, 3, cfg.Pool.Accounts)
		assert.Equal(t, "client", cfg.Credentials.Location)
		assert.Equal(t, "INFO", cfg.Log.Level)
		assert.Empty(t, cfg.Metrics.Addr)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg := config.Default()
		g.apply(cfg, func(string) bool { return true })

		assert.Equal(t, "/secrets/client", cfg.Credentials.Location)
		assert.Equal(t, "DEBUG", cfg.Log.Level)
		assert.Equal(t, ":9100", cfg.Metrics.Addr)
	})
}

func TestUnknownCommandFails(t *testing.T) {
	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"frobnicate"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestMissingConfigFileFails(t *testing.T) {
	var stderr bytes.Buffer
	code := execute(context.Background(), []string{"push-data", "--config", filepath.Join(t.TempDir(), "absent.cue")}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "does not exist")
}

func TestPushDataCommitsStateFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := git.Init(ctx, &git.Options{FS: billy.NewOSFS(dir)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appinfo.json"), []byte(`{"731":"5011"}`), 0o644))

	cfgPath := filepath.Join(t.TempDir(), "manifestsync.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`stateDir: "`+filepath.ToSlash(dir)+`"`), 0o644))

	var stderr bytes.Buffer
	code := execute(ctx, []string{"push-data", "--config", cfgPath, "-l", "ERROR"}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	repo, err := git.Open(ctx, &git.Options{FS: billy.NewOSFS(dir)})
	require.NoError(t, err)
	head, err := repo.BranchHead(ctx, "master")
	require.NoError(t, err)
	msg, err := repo.CommitMessage(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, "update", msg)
	data, err := repo.ReadFile(ctx, head, "appinfo.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"731":"5011"}`, string(data))
}
