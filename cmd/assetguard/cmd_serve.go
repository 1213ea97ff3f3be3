package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/api"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/review"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/sweep"
)

func serveCmd() *cobra.Command {
	var withSweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("serve: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()

			eng := newEngine(src, logger)
			reviewer := review.NewReviewer(cfg.Claude.APIKey, cfg.Claude.Model, logger)
			srv := api.NewServer(src, eng, reviewer, logger, cfg.API.AuthToken, cfg.API.AllowedOrigins)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set ASSETGUARD_API_AUTH_TOKEN or api.auth_token for production use")
			}

			if withSweep {
				s := sweep.NewScheduler(sweep.NewManager(src, eng, cfg.Sweep.Parallelism, logger), cfg.Sweep.Schedule, logger)
				if err := s.Start(ctx); err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				defer s.Stop()
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case startErr := <-errCh:
				if startErr != nil {
					return startErr
				}
				return nil
			}

			const shutdownTimeout = 10 * time.Second
			if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}

			// Drain the errCh in case ListenAndServe returned after Shutdown.
			if startErr := <-errCh; startErr != nil {
				return startErr
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&withSweep, "sweep", false, "also run the compliance sweep on sweep.schedule")
	return cmd
}
