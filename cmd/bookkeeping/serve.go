package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/handlers"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the bookkeeping HTTP API",
		Long: `serve exposes the ledger, documents, clearing and reports under /api/v1.

Requests carry an HS256 bearer token signed with JWT_SECRET; its subject is
recorded as the acting user. PORT, RATE_LIMIT and CORS_ALLOWED_ORIGINS tune the listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := handlers.NewRouter(a.cfg, a.logger, a.services)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Server starting", slog.String("port", a.cfg.Port))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				subject = a.userID
			}
			token, err := middleware.IssueToken(a.cfg.JWTSecret, a.cfg.JWTIssuer, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "User ID carried by the token (default: --user)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
