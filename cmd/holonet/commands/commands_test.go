package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marshallshelly/holonet/cmd/holonet/output"
	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// resetFlags puts every flag back to its default so runs do not leak into
// each other through the package-level flag variables.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var buf bytes.Buffer
	prev := output.SetOutput(&buf)
	t.Cleanup(func() { output.SetOutput(prev) })

	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSchemaSQL(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "postgres",
			args: []string{"schema", "sql"},
			want: []string{`CREATE TABLE IF NOT EXISTS "planets"`, `"id" serial PRIMARY KEY`},
		},
		{
			name: "sqlite",
			args: []string{"schema", "sql", "--dialect", "sqlite"},
			want: []string{`CREATE TABLE IF NOT EXISTS "planets"`, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`},
		},
		{
			name: "drop",
			args: []string{"schema", "sql", "--drop"},
			want: []string{`DROP TABLE IF EXISTS "user_planets"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute(%v) error = %v", tt.args, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestSchemaSQLOrder(t *testing.T) {
	out, err := execute(t, "schema", "sql")
	if err != nil {
		t.Fatalf("schema sql error = %v", err)
	}

	order := []string{"planets", "characters", "users", "posts", "comments", "user_characters", "user_planets"}
	last := -1
	for _, name := range order {
		idx := strings.Index(out, `CREATE TABLE IF NOT EXISTS "`+name+`"`)
		if idx < 0 {
			t.Fatalf("missing CREATE TABLE for %s", name)
		}
		if idx < last {
			t.Errorf("%s created out of dependency order", name)
		}
		last = idx
	}
}

func TestSchemaSQLUnknownDialect(t *testing.T) {
	if _, err := execute(t, "schema", "sql", "--dialect", "mysql"); err == nil {
		t.Error("expected error for unsupported dialect")
	}
}

func TestSchemaShowJSON(t *testing.T) {
	out, err := execute(t, "schema", "show", "users", "--json")
	if err != nil {
		t.Fatalf("schema show error = %v", err)
	}

	var views []tableView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(views) != 1 {
		t.Fatalf("got %d tables, want 1", len(views))
	}

	users := views[0]
	if users.Name != "users" {
		t.Errorf("Name = %q, want users", users.Name)
	}
	if len(users.Columns) != 6 {
		t.Errorf("got %d columns, want 6", len(users.Columns))
	}
	if len(users.PrimaryKey) != 1 || users.PrimaryKey[0] != "id" {
		t.Errorf("PrimaryKey = %v, want [id]", users.PrimaryKey)
	}

	var favorites *relationView
	for i := range users.Relationships {
		if users.Relationships[i].Name == "FavoritePlanets" {
			favorites = &users.Relationships[i]
		}
	}
	if favorites == nil || favorites.JoinTable != "user_planets" {
		t.Errorf("FavoritePlanets = %+v, want join table user_planets", favorites)
	}
}

func TestSchemaShowYAML(t *testing.T) {
	out, err := execute(t, "schema", "show", "--yaml")
	if err != nil {
		t.Fatalf("schema show error = %v", err)
	}

	var views []tableView
	if err := yaml.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(views) != 7 {
		t.Errorf("got %d tables, want 7", len(views))
	}
	if views[0].Name != "planets" {
		t.Errorf("first table = %q, want planets", views[0].Name)
	}
}

func TestSchemaShowText(t *testing.T) {
	out, err := execute(t, "schema", "show", "characters")
	if err != nil {
		t.Fatalf("schema show error = %v", err)
	}
	for _, want := range []string{"Table: characters", "planet_id", "planets(id) ON DELETE CASCADE", "HomePlanet: belongsTo planets"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSchemaShowUnknownTable(t *testing.T) {
	if _, err := execute(t, "schema", "show", "starships"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSchemaValidate(t *testing.T) {
	out, err := execute(t, "schema", "validate")
	if err != nil {
		t.Fatalf("schema validate error = %v", err)
	}
	if !strings.Contains(out, "Schema is valid: 7 tables") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestGenerateRequiresName(t *testing.T) {
	if _, err := execute(t, "generate", "--migrations-dir", t.TempDir(), "--offline"); err == nil {
		t.Error("expected error without --name")
	}
}

func TestGenerateExclusiveFlags(t *testing.T) {
	if _, err := execute(t, "generate", "--migrations-dir", t.TempDir(), "--name", "x", "--empty", "--initial"); err == nil {
		t.Error("expected error for --empty with --initial")
	}
}

func TestGenerateEmpty(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "generate", "--migrations-dir", dir, "--name", "Backfill Names", "--empty"); err != nil {
		t.Fatalf("generate --empty error = %v", err)
	}

	files, err := migration.NewGenerator(dir).ListMigrations()
	if err != nil {
		t.Fatalf("ListMigrations() error = %v", err)
	}
	if len(files) != 1 || files[0].Name != "backfill_names" {
		t.Errorf("files = %+v, want one backfill_names pair", files)
	}
}

func TestGenerateInitialThenOffline(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "generate", "--migrations-dir", dir, "--initial"); err != nil {
		t.Fatalf("generate --initial error = %v", err)
	}

	migrations, err := migration.NewGenerator(dir).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("got %d migrations, want 1", len(migrations))
	}
	if migrations[0].Name != "initial_schema" {
		t.Errorf("Name = %q, want initial_schema", migrations[0].Name)
	}
	if !strings.Contains(migrations[0].UpSQL, `CREATE TABLE IF NOT EXISTS "user_planets"`) {
		t.Errorf("up SQL missing user_planets:\n%s", migrations[0].UpSQL)
	}

	out, err := execute(t, "generate", "--migrations-dir", dir, "--name", "again", "--offline")
	if err != nil {
		t.Fatalf("generate --offline error = %v", err)
	}
	if !strings.Contains(out, "No schema changes detected") {
		t.Errorf("unexpected output: %s", out)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d files in %s, want 2", len(entries), filepath.Base(dir))
	}
}

func TestMigrateUpRequiresMode(t *testing.T) {
	if _, err := execute(t, "migrate", "up", "--migrations-dir", t.TempDir()); err == nil {
		t.Error("expected error without --all or --steps")
	}
}

func TestWriteStatus(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	status := []migration.MigrationRecord{
		{Version: "20260101000000", Name: "initial_schema", Status: migration.StatusApplied, AppliedAt: &at},
		{Version: "20260102000000", Name: "add_bio", Status: migration.StatusPending},
		{Version: "20251231000000", Name: "lost", Status: migration.StatusMissing, AppliedAt: &at},
	}

	var buf bytes.Buffer
	writeStatus(&buf, status)
	out := buf.String()

	for _, want := range []string{"initial_schema", "2026-01-02 03:04:05", "N/A", "Total: 3  Applied: 1  Pending: 1  Missing: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}
