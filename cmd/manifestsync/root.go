package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pjy612/ManifestAutoUpdate-bak/config"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs"
	"github.com/pjy612/ManifestAutoUpdate-bak/fs/billy"
	"github.com/pjy612/ManifestAutoUpdate-bak/metrics"
)

type globalOptions struct {
	configPath         string
	credentialLocation string
	level              string
	poolNum            int
	metricsAddr        string
	stateDir           string
}

// env is what every command works with once flags and configuration are resolved.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	runID   string
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "manifestsync",
		Short:         "Capture depot manifests into a git repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "configuration file (CUE or YAML)")
	flags.StringVarP(&g.credentialLocation, "credential-location", "c", "", "directory holding sentry and token files")
	flags.StringVarP(&g.level, "level", "l", "", "log level: DEBUG, INFO, WARNING or ERROR")
	flags.IntVarP(&g.poolNum, "pool-num", "p", 0, "number of accounts processed at once")
	flags.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&g.stateDir, "state-dir", "", "directory holding the state files")

	cmd.AddCommand(newRunCmd(g, stderr), newPushCmd(g, stderr), newPushDataCmd(g, stderr))
	return cmd
}

// setup resolves the configuration for cmd and builds the logger.
func (g *globalOptions) setup(cmd *cobra.Command, stderr io.Writer) (*env, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", runID)
	return &env{cfg: cfg, logger: logger, metrics: metrics.New(), runID: runID}, nil
}

func (g *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "reading working directory")
	}
	explicit := g.configPath
	if explicit != "" {
		if explicit, err = fs.GetAbs(explicit); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "resolving configuration path")
		}
	}

	root := billy.NewOSFS("/")
	p, err := config.Discover(root, explicit, wd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.Context(), root, p)
	if err != nil {
		return nil, err
	}

	g.apply(cfg, cmd.Flags().Changed)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies the flags the user set over cfg.
func (g *globalOptions) apply(cfg *config.Config, changed func(string) bool) {
	if changed("credential-location") {
		cfg.Credentials.Location = g.credentialLocation
	}
	if changed("level") {
		cfg.Log.Level = strings.ToUpper(g.level)
	}
	if changed("pool-num") && g.poolNum > 0 {
		cfg.Pool.Accounts = g.poolNum
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = g.metricsAddr
	}
	if changed("state-dir") {
		cfg.StateDir = g.stateDir
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, errors.Newf(errors.CodeInvalidConfig, "unknown log level %q", s)
	}
}
