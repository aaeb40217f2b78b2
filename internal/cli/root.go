/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package cli defines the Cobra commands of the loqa-interviewer binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
)

var version = "dev" // set via ldflags at build time

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	out     io.Writer
	in      io.Reader

	metricsAddr   string
	metricsServer *http.Server
}

// NewRootCommand builds the command tree. Output goes to out and typed
// answers are read from in.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	return (&app{in: in, out: out}).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "loqa-interviewer",
		Short: "Voice-driven job interviewer",
		Long: `loqa-interviewer runs an automated job interview: it generates questions
with a chat-completion model, speaks them, transcribes spoken answers and
writes a scored evaluation.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(
		newRunCommand(a),
		newNormalizeCommand(a),
		newTranscribeCommand(a),
		newSpeakCommand(a),
		newHistoryCommand(a),
	)
	a.teardownOnError(root)
	return root
}

// teardownOnError wraps every RunE in the tree with teardown on failure;
// cobra skips PersistentPostRunE when RunE returns an error.
func (a *app) teardownOnError(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			err := run(c, args)
			if err != nil {
				_ = a.teardown()
			}
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		a.teardownOnError(sub)
	}
}

// Execute runs the root command against the process stdio and returns the
// exit code. Called from main.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	if err := logging.InitializeWithConfig(logging.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	a.metrics = metrics.New(cfg.Metrics.Namespace)
	if a.metricsAddr != "" {
		a.serveMetrics()
	}
	return nil
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              a.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.metricsServer = srv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(err, "Metrics server failed", zap.String("addr", a.metricsAddr))
		}
	}()
	logging.S().Infow("📈 Serving metrics", "addr", a.metricsAddr)
}

// teardown stops the metrics server and flushes logs. It is safe to call
// more than once.
func (a *app) teardown() error {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			logging.LogWarn("Metrics server shutdown failed", zap.Error(err))
		}
		a.metricsServer = nil
	}
	logging.Close()
	return nil
}
