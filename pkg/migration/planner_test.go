package migration

import (
	"strings"
	"testing"

	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/schema"
)

func orderedTables(t *testing.T) []*schema.TableMetadata {
	t.Helper()
	reg, err := models.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	tables, err := reg.InDependencyOrder()
	if err != nil {
		t.Fatalf("InDependencyOrder: %v", err)
	}
	return tables
}

func tableNamed(t *testing.T, tables []*schema.TableMetadata, name string) *schema.TableMetadata {
	t.Helper()
	for _, table := range tables {
		if table.Name == name {
			return table
		}
	}
	t.Fatalf("table %s not found", name)
	return nil
}

func TestPlanner_CreateTable(t *testing.T) {
	tables := orderedTables(t)

	tests := []struct {
		name    string
		dialect Dialect
		table   string
		want    string
	}{
		{
			name:    "postgres users",
			dialect: Postgres,
			table:   "users",
			want: `CREATE TABLE IF NOT EXISTS "users" (
    "id" serial PRIMARY KEY,
    "email" varchar(120) NOT NULL UNIQUE,
    "password" text NOT NULL,
    "is_active" boolean NOT NULL,
    "first_name" varchar(100),
    "last_name" varchar(120)
);`,
		},
		{
			name:    "postgres join table",
			dialect: Postgres,
			table:   "user_planets",
			want: `CREATE TABLE IF NOT EXISTS "user_planets" (
    "user_id" integer NOT NULL,
    "planet_id" integer NOT NULL,
    CONSTRAINT "user_planets_pkey" PRIMARY KEY ("user_id", "planet_id"),
    CONSTRAINT "fk_user_planets_user_id_users" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE,
    CONSTRAINT "fk_user_planets_planet_id_planets" FOREIGN KEY ("planet_id") REFERENCES "planets" ("id") ON DELETE CASCADE
);`,
		},
		{
			name:    "sqlite characters",
			dialect: SQLite,
			table:   "characters",
			want: `CREATE TABLE IF NOT EXISTS "characters" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "name" varchar(100),
    "gender" varchar(30),
    "birth_day" varchar(50),
    "species" varchar(50),
    "height" varchar(30),
    "mass" varchar(30),
    "planet_id" integer NOT NULL,
    CONSTRAINT "fk_characters_planet_id_planets" FOREIGN KEY ("planet_id") REFERENCES "planets" ("id") ON DELETE CASCADE
);`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlannerWithOptions(PlannerOptions{Dialect: tt.dialect, IfNotExists: true})
			got := p.generateCreateTable(tableNamed(t, tables, tt.table))
			if got != tt.want {
				t.Errorf("generateCreateTable() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestPlanner_DropStatements(t *testing.T) {
	tables := orderedTables(t)

	pg := NewPlanner().DropStatements(tables)
	if len(pg) != len(tables) {
		t.Fatalf("got %d statements, want %d", len(pg), len(tables))
	}
	if want := `DROP TABLE IF EXISTS "user_planets" CASCADE;`; pg[0] != want {
		t.Errorf("first drop = %q, want %q", pg[0], want)
	}
	if want := `DROP TABLE IF EXISTS "planets" CASCADE;`; pg[len(pg)-1] != want {
		t.Errorf("last drop = %q, want %q", pg[len(pg)-1], want)
	}

	lite := NewPlannerWithOptions(PlannerOptions{Dialect: SQLite}).DropStatements(tables)
	for _, stmt := range lite {
		if strings.Contains(stmt, "CASCADE") || strings.Contains(stmt, "IF EXISTS") {
			t.Errorf("sqlite drop without IfNotExists = %q", stmt)
		}
	}
}

func TestPlanner_GenerateMigration_Initial(t *testing.T) {
	tables := orderedTables(t)
	up, down := NewPlanner().GenerateMigration(&SchemaDiff{TablesAdded: tables})

	var creates []string
	for line := range strings.Lines(up) {
		if name, ok := strings.CutPrefix(line, "CREATE TABLE IF NOT EXISTS "); ok {
			creates = append(creates, strings.Trim(strings.Fields(name)[0], `"`))
		}
	}
	want := []string{"planets", "characters", "users", "posts", "comments", "user_characters", "user_planets"}
	if strings.Join(creates, ",") != strings.Join(want, ",") {
		t.Errorf("create order = %v, want %v", creates, want)
	}

	var drops []string
	for line := range strings.Lines(down) {
		if name, ok := strings.CutPrefix(line, "DROP TABLE IF EXISTS "); ok {
			drops = append(drops, strings.Trim(strings.Fields(name)[0], `"`))
		}
	}
	if len(drops) != len(want) || drops[0] != "user_planets" || drops[len(drops)-1] != "planets" {
		t.Errorf("drop order = %v", drops)
	}

	if !strings.HasSuffix(up, ");\n") {
		t.Errorf("up script should end with a newline, got %q", up[len(up)-10:])
	}
}

func TestPlanner_GenerateMigration_Empty(t *testing.T) {
	up, down := NewPlanner().GenerateMigration(&SchemaDiff{})
	if up != "" || down != "" {
		t.Errorf("empty diff produced up=%q down=%q", up, down)
	}
}

func TestPlanner_AlterTable(t *testing.T) {
	nickname := schema.ColumnMetadata{Name: "nickname", SQLType: "varchar(40)", Nullable: true}
	title := schema.ColumnMetadata{Name: "title", SQLType: "varchar(200)"}
	longTitle := title
	longTitle.SQLType = "varchar(300)"
	longTitle.Unique = true

	diff := &SchemaDiff{TablesModified: []TableDiff{{
		TableName:    "posts",
		ColumnsAdded: []schema.ColumnMetadata{nickname},
		ColumnsModified: []ColumnDiff{{
			ColumnName:    "title",
			OldColumn:     title,
			NewColumn:     longTitle,
			TypeChanged:   true,
			UniqueChanged: true,
		}},
	}}}

	up, down := NewPlanner().GenerateMigration(diff)

	wantUp := `ALTER TABLE "posts" ADD COLUMN "nickname" varchar(40);

ALTER TABLE "posts" ALTER COLUMN "title" TYPE varchar(300);

ALTER TABLE "posts" ADD CONSTRAINT "posts_title_key" UNIQUE ("title");
`
	if up != wantUp {
		t.Errorf("up =\n%s\nwant\n%s", up, wantUp)
	}

	wantDown := `ALTER TABLE "posts" DROP CONSTRAINT IF EXISTS "posts_title_key";

ALTER TABLE "posts" ALTER COLUMN "title" TYPE varchar(200);

ALTER TABLE "posts" DROP COLUMN "nickname";
`
	if down != wantDown {
		t.Errorf("down =\n%s\nwant\n%s", down, wantDown)
	}

	liteUp, _ := NewPlannerWithOptions(PlannerOptions{Dialect: SQLite}).GenerateMigration(diff)
	if !strings.Contains(liteUp, "-- MANUAL MIGRATION REQUIRED: rebuild posts to change column title") {
		t.Errorf("sqlite up missing manual migration note:\n%s", liteUp)
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", Postgres, false},
		{"postgres", Postgres, false},
		{"PostgreSQL", Postgres, false},
		{"sqlite", SQLite, false},
		{"sqlite3", SQLite, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
