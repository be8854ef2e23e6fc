package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"swupdate/internal/config"
	"swupdate/internal/daemon"
	"swupdate/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the coordinator over HTTP and poll the worker script",
		Example: "  swupdated serve --scripts-dir ./public --script sw.js\n" +
			"  SWUPDATE_CHECK_INTERVAL_SECONDS=5 swupdated serve --config swupdate.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, cmd)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, cmd *cobra.Command) error {
	cfg, err := config.Resolve(root.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if root.logLevel != "" {
		level = root.logLevel
	}
	log := newLogger(os.Stderr, level, root.logJSON)

	d, err := daemon.New(ctx, daemon.Options{
		ScriptsDir:     cfg.ScriptsDir,
		Script:         cfg.Script,
		JournalPath:    cfg.JournalPath,
		ReloadOnUpdate: cfg.ReloadEnabled(),
		CheckInterval:  cfg.CheckInterval(),
		Logger:         log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Error().Err(err).Msg("close daemon")
		}
	}()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
	httpapi.SetSwaggerEnabled(cfg.Swagger)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go d.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("scripts_dir", cfg.ScriptsDir).
			Str("script", cfg.Script).
			Dur("check_interval", cfg.CheckInterval()).
			Msg("swupdated listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
