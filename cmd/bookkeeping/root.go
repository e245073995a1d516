package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	portsrepo "github.com/SscSPs/bookkeeping_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/core/services"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
	"github.com/SscSPs/bookkeeping_core/internal/platform/logging"
	"github.com/SscSPs/bookkeeping_core/internal/repositories/database/memory"
	"github.com/SscSPs/bookkeeping_core/internal/repositories/database/pgsql"
	"github.com/SscSPs/bookkeeping_core/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// app carries what every subcommand needs once the root command has prepared it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	services *portssvc.ServiceContainer
	userID   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bookkeeping",
		Short: "Operator CLI for the double-entry bookkeeping core",
		Long: `bookkeeping runs ledger, clearing and reporting operations against the configured store.

Configuration comes from the environment or a .env file:
  STORAGE_DRIVER  memory or postgres
  PGSQL_URL       connection string, required for postgres
  LOG_LEVEL       debug, info, warn or error
  LOG_FORMAT      json or text
  JWT_SECRET      HS256 key for API tokens, required by serve and token`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}
	root.PersistentFlags().StringVar(&a.userID, "user", "cli", "User ID recorded in audit fields")

	root.AddCommand(
		newMigrateCmd(a),
		newReportCmd(a),
		newOpenItemsCmd(a),
		newClearCmd(a),
		newEntryCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
	)
	return root
}

// setup loads configuration, builds the logger and wires storage into the service container.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	// Logs go to stderr so stdout stays pure JSON output
	a.logger = logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(a.logger)

	var repos portsrepo.RepositoryProvider
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.RunMigrations && cmd.Name() != "migrate" {
			if err := database.RunMigrations(a.logger, cfg.DatabaseURL); err != nil {
				return err
			}
		}
		pool, err := database.NewPgxPool(cmd.Context(), a.logger, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return err
		}
		a.pool = pool
		repos = pgsql.NewRepositoryProvider(pool, cfg.ReportStreamBatch)
	default:
		a.logger.Warn("Using the in-memory store; state is discarded when the command exits")
		repos = memory.NewRepositoryProvider(memory.NewStore())
	}

	a.services = services.NewServiceContainer(cfg, repos)
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		database.ClosePgxPool(a.logger, a.pool)
	}
}

// run executes fn as one logged operation and prints its result as JSON on stdout.
func (a *app) run(cmd *cobra.Command, operation string, fn func(ctx context.Context) (any, error)) error {
	ctx, done := middleware.StartOperation(cmd.Context(), a.logger, operation, a.userID)
	result, err := fn(ctx)
	done(err)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, use YYYY-MM-DD: %w", flag, value, err)
	}
	return t, nil
}

// optional returns nil for an empty flag value.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.StorageDriver != config.StoragePostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.StoragePostgres)
			}
			return database.RunMigrations(a.logger, a.cfg.DatabaseURL)
		},
	}
}
