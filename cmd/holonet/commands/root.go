// Package commands implements the holonet command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/marshallshelly/holonet/pkg/runtime"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbURL         string
	migrationsDir string
	verbose       bool
	jsonOutput    bool

	// Resolved in PersistentPreRunE.
	cfg    *runtime.Config
	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "holonet",
	Short: "HoloNet schema and migration tool",
	Long: `holonet inspects the HoloNet data model and keeps a PostgreSQL database in
step with it.

Connection settings come from HOLONET_* environment variables; --db and
--migrations-dir override them.

Commands:
  schema    - Show, validate, diff or browse the declared tables
  generate  - Write a new migration from the schema diff
  migrate   - Apply, roll back or list migrations`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides HOLONET_DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "./migrations", "Directory for migration files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// loadSettings reads the environment and lets explicit flags win.
func loadSettings(cmd *cobra.Command) error {
	c, err := runtime.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.URL = dbURL
	}
	if flags.Changed("migrations-dir") {
		c.MigrationsDir = migrationsDir
	}
	if verbose {
		c.LogLevel = "debug"
	}

	l, err := runtime.SetupLogger(os.Stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}

	cfg, logger = c, l
	return nil
}

func connect(ctx context.Context) (*runtime.DB, error) {
	db, err := runtime.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func loadMigrations() ([]migration.Migration, error) {
	migrations, err := migration.NewGenerator(cfg.MigrationsDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return migrations, nil
}
