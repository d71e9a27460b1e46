package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/marshallshelly/holonet/cmd/holonet/output"
	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/spf13/cobra"
)

var (
	// Migrate flags
	dryRun    bool
	all       bool
	upSteps   int
	downSteps int
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to keep the database schema in sync with the code.

Subcommands:
  up      - Apply pending migrations
  down    - Rollback migrations
  status  - Show migration status`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply pending migrations to update the database schema.

Examples:
  holonet migrate up --all              # Apply all pending migrations
  holonet migrate up --steps 1          # Apply next migration
  holonet migrate up --dry-run --all    # Preview migrations without applying`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateUp()
	},
}

// migrateDownCmd rolls back migrations
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback migrations",
	Long: `Rollback applied migrations, newest first.

Examples:
  holonet migrate down                  # Rollback last migration
  holonet migrate down --steps 2        # Rollback the last two
  holonet migrate down --dry-run        # Preview rollback without executing`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateDown()
	},
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Show the status of all migrations (applied, pending, missing).

Examples:
  holonet migrate status                # Show migration status
  holonet migrate status --json         # Output in JSON format`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrateStatus(cmd)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	migrateUpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview migrations without applying")
	migrateUpCmd.Flags().BoolVar(&all, "all", false, "Apply all pending migrations")
	migrateUpCmd.Flags().IntVar(&upSteps, "steps", 0, "Number of migrations to apply")
	migrateUpCmd.MarkFlagsMutuallyExclusive("all", "steps")

	migrateDownCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview rollback without executing")
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to rollback")
}

func runMigrateUp() error {
	if !all && upSteps <= 0 {
		return errors.New("must specify --all or --steps")
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	if len(migrations) == 0 {
		output.Warning("No migrations found in %s", cfg.MigrationsDir)
		return nil
	}

	ctx := context.Background()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	n := upSteps
	if all {
		n = 0
	}

	title := "Applying Migrations"
	if dryRun {
		title = "DRY RUN - Preview"
	}
	output.Section(title)

	applied, err := migration.NewExecutor(db).Up(ctx, migrations, n, dryRun)
	for _, m := range applied {
		if dryRun {
			output.Info("Would apply %s - %s", m.Version, m.Name)
			continue
		}
		output.Success("Applied %s - %s", m.Version, m.Name)
	}
	if err != nil {
		output.Error("%v", err)
		return err
	}

	if len(applied) == 0 {
		output.Info("No pending migrations")
		return nil
	}
	if !dryRun {
		output.Success("Successfully applied %d migration(s)", len(applied))
	}
	return nil
}

func runMigrateDown() error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	title := "Rolling Back Migrations"
	if dryRun {
		title = "DRY RUN - Preview"
	}
	output.Section(title)

	rolledBack, err := migration.NewExecutor(db).Down(ctx, migrations, downSteps, dryRun)
	for _, m := range rolledBack {
		if dryRun {
			output.Info("Would roll back %s - %s", m.Version, m.Name)
			continue
		}
		output.Success("Rolled back %s - %s", m.Version, m.Name)
	}
	if err != nil {
		output.Error("%v", err)
		return err
	}

	if len(rolledBack) == 0 {
		output.Info("No migrations to rollback")
		return nil
	}
	if !dryRun {
		output.Success("Successfully rolled back %d migration(s)", len(rolledBack))
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := migration.NewExecutor(db).Status(ctx, migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), status)
	}
	if len(status) == 0 {
		output.Warning("No migrations found")
		return nil
	}

	writeStatus(cmd.OutOrStdout(), status)
	return nil
}

func writeStatus(w io.Writer, status []migration.MigrationRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	fmt.Fprintln(tw, "-------\t----\t------\t----------")

	counts := make(map[migration.MigrationStatus]int)
	for _, record := range status {
		appliedAt := "N/A"
		if record.AppliedAt != nil {
			appliedAt = record.AppliedAt.Format("2006-01-02 15:04:05")
		}
		counts[record.Status]++

		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n",
			record.Version,
			record.Name,
			output.StatusIcon(string(record.Status)),
			record.Status,
			appliedAt,
		)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal: %d  Applied: %d  Pending: %d  Missing: %d\n",
		len(status),
		counts[migration.StatusApplied],
		counts[migration.StatusPending],
		counts[migration.StatusMissing],
	)
}
