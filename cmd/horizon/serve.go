package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/star/horizon/internal/api"
	"github.com/star/horizon/internal/auth"
	"github.com/star/horizon/internal/cache"
	"github.com/star/horizon/internal/health"
	"github.com/star/horizon/internal/schwarzschild"
	"github.com/star/horizon/internal/stream"
)

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if f := cmd.Flags().Lookup("addr"); f.Changed {
			a.settings.HTTP.Addr = f.Value.String()
		}
		return nil
	}
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	s := a.settings
	logger := a.newLogger(os.Stdout)

	policy := s.CalculatorPolicy()
	defaults := s.DefaultInput()

	results := cache.NewResults(cache.Config{TTL: s.Cache.TTL, Cleanup: s.Cache.Cleanup}, logger)

	streamHandler := stream.NewHandler(policy, stream.Config{
		MaxConcurrentPerIP: s.Stream.MaxConcurrentPerIP,
		MaxTotal:           s.Stream.MaxTotal,
		KeepaliveInterval:  s.Stream.Keepalive,
		TrustProxy:         s.Stream.TrustProxy,
		ReferenceSpeed:     s.Calculator.ReferenceSpeed,
	}, logger)

	probes := health.New(func() error {
		_, err := schwarzschild.Evaluate(defaults)
		return err
	})

	srv := api.NewServer(s.HTTP.Addr, logger, api.Options{
		Auth:        auth.Config{Enabled: s.Auth.Enabled, Token: s.Auth.Token},
		CORSOrigins: s.CORS.Origins,
		Policy:      policy,
		Defaults:    defaults,
		Results:     results,
		Stream:      streamHandler,
		Probes:      probes,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", s.HTTP.Addr,
			"auth_enabled", s.Auth.Enabled,
			"reference_speed", s.Calculator.ReferenceSpeed,
			"time_dilation_threshold", policy.TimeDilationThreshold,
			"escape_fraction", policy.EscapeFraction,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server listen error", "error", err)
			return fmt.Errorf("listen on %s: %w", s.HTTP.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	probes.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
