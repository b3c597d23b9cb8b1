package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/logging"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/session"
)

type replayOptions struct {
	configPath string
	env        string
	exercise   string
	input      string
	exec       string
	logLevel   string
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Count reps in a recorded or live sample stream",
		Example: `  repcount replay --exercise squat --input session.jsonl
  repcount replay --exercise curl --exec "python3 estimator.py --camera 0"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (opts.input == "") == (opts.exec == "") {
				return errors.New("exactly one of --input or --exec is required")
			}
			count, err := replay(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "repcount.toml", "path to the TOML config file")
	cmd.Flags().StringVar(&opts.env, "env", "development", "config section: development or production")
	cmd.Flags().StringVarP(&opts.exercise, "exercise", "e", "", "exercise to count (defaults to the configured one)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON lines file of samples")
	cmd.Flags().StringVar(&opts.exec, "exec", "", "estimator command writing JSON lines to stdout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	return cmd
}

func replay(ctx context.Context, opts replayOptions) (int, error) {
	cfg, err := loadConfig(opts.configPath, opts.env)
	if err != nil {
		return 0, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Setup(logging.LoggerSetupParams{LogLevel: level, LogFormatJSON: cfg.LogFormatJSON})

	thresholds, err := cfg.Thresholds()
	if err != nil {
		return 0, err
	}
	name := cfg.Exercise
	if opts.exercise != "" {
		name = opts.exercise
	}
	kind, err := exercise.ParseKind(name)
	if err != nil {
		return 0, err
	}

	src, err := openSource(opts)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	entry := log.WithField("component", "replay")
	sess, err := session.New(session.Config{
		Thresholds: thresholds,
		Initial:    kind,
		Log:        entry,
		Metrics:    metrics.NewManager("repcount", "replay", prometheus.NewRegistry()),
	})
	if err != nil {
		return 0, err
	}

	unsubscribe := sess.Subscribe(func(ev session.Event) {
		if ev.Type == session.EventRep {
			entry.WithFields(log.Fields{
				"exercise": ev.Kind,
				"count":    ev.Count,
				"at":       ev.At,
			}).Info(ev.Feedback)
		}
	})
	defer unsubscribe()

	n, err := session.Pump(ctx, src, sess)
	entry.Debugf("processed %d samples", n)
	if err != nil && ctx.Err() != nil {
		// Interrupted: report what was counted so far.
		entry.Infof("replay interrupted: %s", err)
		return sess.Count(kind), nil
	}
	return sess.Count(kind), err
}

func openSource(opts replayOptions) (pose.Source, error) {
	if opts.input != "" {
		return pose.OpenFile(opts.input)
	}
	fields := strings.Fields(opts.exec)
	if len(fields) == 0 {
		return nil, errors.New("empty --exec command")
	}
	return pose.NewCommandSource(fields[0], fields[1:]...)
}
