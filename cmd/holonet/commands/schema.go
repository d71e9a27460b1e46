package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/marshallshelly/holonet/cmd/holonet/output"
	"github.com/marshallshelly/holonet/cmd/holonet/tui"
	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/registry"
	"github.com/marshallshelly/holonet/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	// Schema flags
	yamlOutput bool
	sqlDialect string
	sqlDrop    bool
	summary    bool
)

// schemaCmd groups commands that read the declared tables
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the declared schema",
	Long: `Inspect the HoloNet tables declared in code.

Subcommands:
  show      - Print tables, columns, keys and relationships
  sql       - Print the DDL for every table
  validate  - Check that the declarations agree with each other
  diff      - Compare the declarations with a live database
  inspect   - Print the tables of a live database
  browse    - Browse the tables interactively`,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [table]",
	Short: "Print the declared tables",
	Long: `Print the declared tables in dependency order.

Examples:
  holonet schema show                 # All tables
  holonet schema show users           # One table
  holonet schema show --yaml          # YAML instead of text`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchemaShow(cmd, args)
	},
}

var schemaSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the DDL for the declared tables",
	Long: `Print CREATE TABLE statements in dependency order.

Examples:
  holonet schema sql                     # PostgreSQL
  holonet schema sql --dialect sqlite    # SQLite
  holonet schema sql --drop              # DROP statements, dependents first`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchemaSQL(cmd)
	},
}

var schemaValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the declared schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchemaValidate()
	},
}

var schemaDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the declared schema with the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchemaDiff(cmd)
	},
}

var schemaInspectCmd = &cobra.Command{
	Use:   "inspect [table]",
	Short: "Print the tables of the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchemaInspect(cmd, args)
	},
}

var schemaBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the declared tables interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := declaredTables()
		if err != nil {
			return err
		}
		return tui.RunBrowser(tables)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaShowCmd, schemaSQLCmd, schemaValidateCmd, schemaDiffCmd, schemaInspectCmd, schemaBrowseCmd)

	schemaShowCmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	schemaInspectCmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	schemaInspectCmd.Flags().BoolVar(&summary, "summary", false, "Only print counts per table")
	schemaSQLCmd.Flags().StringVar(&sqlDialect, "dialect", "postgres", "SQL dialect (postgres or sqlite)")
	schemaSQLCmd.Flags().BoolVar(&sqlDrop, "drop", false, "Print DROP TABLE statements instead")
}

// declaredTables builds the schema and returns its tables in dependency order.
func declaredTables() ([]*schema.TableMetadata, error) {
	reg, err := models.NewSchema()
	if err != nil {
		return nil, err
	}
	return reg.InDependencyOrder()
}

// selectTable narrows tables to the one named by args, if any.
func selectTable(tables []*schema.TableMetadata, args []string) ([]*schema.TableMetadata, error) {
	if len(args) == 0 {
		return tables, nil
	}
	for _, t := range tables {
		if t.Name == args[0] {
			return []*schema.TableMetadata{t}, nil
		}
	}
	return nil, fmt.Errorf("table %q not found", args[0])
}

func printTables(cmd *cobra.Command, tables []*schema.TableMetadata) error {
	w := cmd.OutOrStdout()
	views := newSchemaView(tables)

	switch {
	case jsonOutput:
		return writeJSON(w, views)
	case yamlOutput:
		return writeYAML(w, views)
	}

	for _, v := range views {
		if summary {
			writeTableSummary(w, v)
			continue
		}
		writeTable(w, v)
	}
	return nil
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	tables, err := declaredTables()
	if err != nil {
		return err
	}
	tables, err = selectTable(tables, args)
	if err != nil {
		return err
	}
	return printTables(cmd, tables)
}

func runSchemaSQL(cmd *cobra.Command) error {
	dialect, err := migration.ParseDialect(sqlDialect)
	if err != nil {
		return err
	}
	tables, err := declaredTables()
	if err != nil {
		return err
	}

	planner := migration.NewPlannerWithOptions(migration.PlannerOptions{Dialect: dialect, IfNotExists: true})
	statements := planner.CreateStatements(tables)
	if sqlDrop {
		statements = planner.DropStatements(tables)
	}

	w := cmd.OutOrStdout()
	for _, stmt := range statements {
		fmt.Fprintln(w, stmt)
		fmt.Fprintln(w)
	}
	return nil
}

func runSchemaValidate() error {
	tables, err := declaredTables()
	if err != nil {
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				output.Error("%v", e)
			}
		}
		return err
	}
	output.Success("Schema is valid: %d tables", len(tables))
	return nil
}

func runSchemaDiff(cmd *cobra.Command) error {
	ctx := context.Background()

	reg, err := models.NewSchema()
	if err != nil {
		return err
	}

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dbSchema, err := migration.NewIntrospector(db).IntrospectSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to introspect database: %w", err)
	}

	diff, err := migration.NewDiffer().Compare(reg.GetAllTables(), dbSchema)
	if err != nil {
		return err
	}
	if !diff.HasChanges() {
		output.Success("No schema changes detected. Database is in sync with models.")
		return nil
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), diff)
	}

	upSQL, downSQL := migration.NewPlanner().GenerateMigration(diff)

	output.Section("Schema Differences")
	writeDiff(cmd.OutOrStdout(), diff)

	output.Section("Migration SQL (UP)")
	fmt.Fprintln(cmd.OutOrStdout(), upSQL)
	if verbose {
		output.Section("Migration SQL (DOWN)")
		fmt.Fprintln(cmd.OutOrStdout(), downSQL)
	}
	return nil
}

func runSchemaInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	introspector := migration.NewIntrospector(db)

	if len(args) == 1 {
		table, err := introspector.IntrospectTable(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to introspect table %s: %w", args[0], err)
		}
		if len(table.Columns) == 0 {
			return fmt.Errorf("table %q not found", args[0])
		}
		return printTables(cmd, []*schema.TableMetadata{table})
	}

	dbSchema, err := introspector.IntrospectSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to introspect database: %w", err)
	}
	if len(dbSchema) == 0 {
		output.Warning("No tables found")
		return nil
	}

	tables, err := registry.SortByDependency(dbSchema)
	if err != nil {
		return err
	}
	return printTables(cmd, tables)
}
