package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/marshallshelly/holonet/cmd/holonet/output"
	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	// Generate flags
	migrationName string
	empty         bool
	initial       bool
	offline       bool
)

// generateCmd generates migration files
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate migration files",
	Long: `Generate migration files by comparing the declared tables with a baseline.

The baseline is the live database by default. --offline replays the existing
migration files instead, and --initial starts from an empty schema.

Examples:
  holonet generate --name add_favorites             # Diff against the database
  holonet generate --name add_favorites --offline   # Diff against the migrations dir
  holonet generate --initial                        # Full schema, no database needed
  holonet generate --name backfill --empty          # Blank files for manual SQL`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&migrationName, "name", "n", "", "Migration name (snake_case)")
	generateCmd.Flags().BoolVar(&empty, "empty", false, "Generate empty migration for manual editing")
	generateCmd.Flags().BoolVar(&initial, "initial", false, "Generate the full schema against an empty baseline")
	generateCmd.Flags().BoolVar(&offline, "offline", false, "Use the existing migration files as the baseline")
	generateCmd.MarkFlagsMutuallyExclusive("empty", "initial", "offline")
}

func runGenerate(cmd *cobra.Command) error {
	generator := migration.NewGenerator(cfg.MigrationsDir)

	name := migrationName
	if name == "" && initial {
		name = "initial_schema"
	}
	if name == "" {
		return errors.New("--name is required")
	}

	if empty {
		file, err := generator.GenerateEmpty(name)
		if err != nil {
			return fmt.Errorf("failed to generate empty migration: %w", err)
		}
		printCreated("Created empty migration", file)
		output.Info("Edit the SQL files manually to add your migration logic.")
		return nil
	}

	reg, err := models.NewSchema()
	if err != nil {
		return err
	}

	baseline, err := loadBaseline(context.Background(), generator)
	if err != nil {
		return err
	}

	diff, err := migration.NewDiffer().Compare(reg.GetAllTables(), baseline)
	if err != nil {
		return err
	}
	if !diff.HasChanges() {
		output.Info("No schema changes detected. Baseline is in sync with models.")
		return nil
	}

	output.Section("Detected Schema Changes")
	writeDiff(cmd.OutOrStdout(), diff)

	upSQL, downSQL := migration.NewPlanner().GenerateMigration(diff)
	file, err := generator.Generate(name, upSQL, downSQL)
	if err != nil {
		return fmt.Errorf("failed to generate migration: %w", err)
	}

	printCreated("Created migration", file)
	output.Info("Review the generated SQL files before applying the migration.")
	return nil
}

// loadBaseline returns the schema the new migration is diffed against.
func loadBaseline(ctx context.Context, generator *migration.Generator) (map[string]*schema.TableMetadata, error) {
	switch {
	case initial:
		return map[string]*schema.TableMetadata{}, nil
	case offline:
		migrations, err := generator.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load migrations: %w", err)
		}
		tables, err := migration.Replay(migrations)
		if err != nil {
			return nil, fmt.Errorf("failed to replay migrations: %w", err)
		}
		logger.Debug("replayed migrations", "count", len(migrations), "tables", len(tables))
		return tables, nil
	}

	db, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := migration.NewIntrospector(db).IntrospectSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect database: %w", err)
	}
	return tables, nil
}

func printCreated(msg string, file *migration.MigrationFile) {
	output.Success("%s: %s", msg, file.Version)
	output.Muted("  Up:   %s", file.UpPath)
	output.Muted("  Down: %s", file.DownPath)
}
