package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/logging"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/server"
	"github.com/ayusman/repcount/internal/session"
)

func newServeCmd() *cobra.Command {
	var configPath, env string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, env)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "repcount.toml", "path to the TOML config file")
	cmd.Flags().StringVar(&env, "env", "development", "config section: development or production")
	return cmd
}

// loadConfig reads path, falling back to defaults when the file does not exist.
func loadConfig(path, env string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path, env)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	thresholds, err := cfg.Thresholds()
	if err != nil {
		return err
	}
	initial, err := cfg.InitialExercise()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("repcount", "session", reg)

	entry := log.WithField("component", "repcount")
	sess, err := session.New(session.Config{
		Thresholds: thresholds,
		Initial:    initial,
		Log:        entry,
		Metrics:    m,
	})
	if err != nil {
		return err
	}

	if len(cfg.Estimator) > 0 {
		src, err := pose.NewCommandSource(cfg.Estimator[0], cfg.Estimator[1:]...)
		if err != nil {
			return err
		}
		defer src.Close()

		go func() {
			n, err := session.Pump(ctx, src, sess)
			// Shutdown closes the estimator under a pending read.
			if err != nil && ctx.Err() == nil {
				entry.Errorf("estimator stopped after %d samples: %s", n, err)
				return
			}
			entry.Infof("estimator finished after %d samples", n)
		}()
	}

	webDir := findWebDir()
	if webDir != "" {
		entry.Infof("serving static files from: %s", webDir)
	}

	srv := server.New(server.Config{
		Session:   sess,
		Metrics:   m,
		Gatherer:  reg,
		Log:       entry,
		StaticDir: webDir,
	})
	return srv.Run(ctx, cfg.Addr())
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repcount/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".repcount", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
