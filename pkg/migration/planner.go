package migration

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/holonet/pkg/schema"
)

// Dialect selects the SQL flavor the planner emits.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(name)) {
	case Postgres, "postgresql", "":
		return Postgres, nil
	case SQLite, "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown dialect %q", name)
}

// quoteIdent quotes an identifier to handle reserved keywords such as "user".
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}

// PlannerOptions configures migration generation behavior.
type PlannerOptions struct {
	Dialect Dialect
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE and IF EXISTS to DROP
	// TABLE statements.
	IfNotExists bool
}

// Planner generates SQL migration statements from schema diffs.
type Planner struct {
	options PlannerOptions
}

// NewPlanner creates a PostgreSQL planner with default options.
func NewPlanner() *Planner {
	return NewPlannerWithOptions(PlannerOptions{Dialect: Postgres, IfNotExists: true})
}

// NewPlannerWithOptions creates a new migration planner with custom options.
func NewPlannerWithOptions(opts PlannerOptions) *Planner {
	if opts.Dialect == "" {
		opts.Dialect = Postgres
	}
	return &Planner{options: opts}
}

// Dialect returns the planner's SQL dialect.
func (p *Planner) Dialect() Dialect {
	return p.options.Dialect
}

// CreateStatements returns one CREATE TABLE per table, in the given order.
// Callers pass tables in dependency order.
func (p *Planner) CreateStatements(tables []*schema.TableMetadata) []string {
	out := make([]string, len(tables))
	for i, table := range tables {
		out[i] = p.generateCreateTable(table)
	}
	return out
}

// DropStatements returns one DROP TABLE per table in reverse of the given
// order, so dependents go first.
func (p *Planner) DropStatements(tables []*schema.TableMetadata) []string {
	out := make([]string, 0, len(tables))
	for _, table := range slices.Backward(tables) {
		out = append(out, p.generateDropTable(table.Name))
	}
	return out
}

// GenerateMigration generates up and down SQL from a schema diff. The down
// script undoes the up script statement by statement in reverse order.
func (p *Planner) GenerateMigration(diff *SchemaDiff) (upSQL, downSQL string) {
	var upStatements []string
	var downStatements []string

	for _, table := range diff.TablesAdded {
		upStatements = append(upStatements, p.generateCreateTable(table))
		downStatements = append(downStatements, p.generateDropTable(table.Name))
	}

	for _, tableDiff := range diff.TablesModified {
		up, down := p.generateAlterTable(tableDiff)
		upStatements = append(upStatements, up...)
		downStatements = append(downStatements, down...)
	}

	for _, table := range diff.TablesDropped {
		upStatements = append(upStatements, p.generateDropTable(table.Name))
		downStatements = append(downStatements, p.generateCreateTable(table))
	}

	slices.Reverse(downStatements)

	return joinStatements(upStatements), joinStatements(downStatements)
}

func joinStatements(statements []string) string {
	if len(statements) == 0 {
		return ""
	}
	return strings.Join(statements, "\n\n") + "\n"
}

// generateCreateTable generates a CREATE TABLE statement.
func (p *Planner) generateCreateTable(table *schema.TableMetadata) string {
	var parts []string

	var singlePKColumn string
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) == 1 {
		singlePKColumn = table.PrimaryKey.Columns[0]
	}

	for _, col := range table.Columns {
		parts = append(parts, "    "+p.generateColumnDefinition(col, col.Name == singlePKColumn))
	}

	// Composite keys only; single-column keys are declared inline.
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 1 {
		parts = append(parts, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent(table.PrimaryKey.Name), quoteIdents(table.PrimaryKey.Columns)))
	}

	for _, fk := range table.ForeignKeys {
		parts = append(parts, "    "+p.generateForeignKeyDefinition(fk))
	}

	createClause := "CREATE TABLE"
	if p.options.IfNotExists {
		createClause = "CREATE TABLE IF NOT EXISTS"
	}

	return fmt.Sprintf("%s %s (\n%s\n);", createClause, quoteIdent(table.Name), strings.Join(parts, ",\n"))
}

// generateColumnDefinition generates a column definition.
func (p *Planner) generateColumnDefinition(col schema.ColumnMetadata, primaryKey bool) string {
	if p.options.Dialect == SQLite && primaryKey && col.AutoIncrement {
		return quoteIdent(col.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	parts := []string{quoteIdent(col.Name), p.columnType(col)}

	if primaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, "DEFAULT", *col.Default)
	}

	if col.Unique && !primaryKey {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

// columnType maps the declared type to the dialect. SQLite has no serial
// pseudotypes.
func (p *Planner) columnType(col schema.ColumnMetadata) string {
	if p.options.Dialect != SQLite {
		return col.SQLType
	}
	switch strings.ToLower(col.SQLType) {
	case "serial", "bigserial":
		return "INTEGER"
	}
	return col.SQLType
}

// generateForeignKeyDefinition generates a foreign key constraint.
func (p *Planner) generateForeignKeyDefinition(fk schema.ForeignKeyMetadata) string {
	parts := []string{
		fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", quoteIdent(fk.Name), quoteIdents(fk.Columns)),
		fmt.Sprintf("REFERENCES %s (%s)", quoteIdent(fk.ReferencedTable), quoteIdents(fk.ReferencedColumns)),
	}

	if fk.OnDelete != schema.NoAction && fk.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(fk.OnDelete))
	}
	if fk.OnUpdate != schema.NoAction && fk.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(fk.OnUpdate))
	}

	return strings.Join(parts, " ")
}

// generateDropTable generates a DROP TABLE statement. PostgreSQL drops
// dependent constraints with CASCADE; SQLite has no such clause.
func (p *Planner) generateDropTable(tableName string) string {
	dropClause := "DROP TABLE"
	if p.options.IfNotExists {
		dropClause = "DROP TABLE IF EXISTS"
	}
	if p.options.Dialect == SQLite {
		return fmt.Sprintf("%s %s;", dropClause, quoteIdent(tableName))
	}
	return fmt.Sprintf("%s %s CASCADE;", dropClause, quoteIdent(tableName))
}

// generateAlterTable generates ALTER TABLE statements for table
// modifications. SQLite can only add and drop columns; other changes are
// emitted as comments asking for a table rebuild.
func (p *Planner) generateAlterTable(diff TableDiff) (upSQL, downSQL []string) {
	table := quoteIdent(diff.TableName)

	for _, col := range diff.ColumnsAdded {
		upSQL = append(upSQL, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, p.generateColumnDefinition(col, false)))
		downSQL = append(downSQL, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, quoteIdent(col.Name)))
	}

	for _, col := range diff.ColumnsDropped {
		upSQL = append(upSQL, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, quoteIdent(col.Name)))
		downSQL = append(downSQL, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, p.generateColumnDefinition(col, false)))
	}

	for _, colDiff := range diff.ColumnsModified {
		if p.options.Dialect == SQLite {
			upSQL = append(upSQL, fmt.Sprintf("-- MANUAL MIGRATION REQUIRED: rebuild %s to change column %s", diff.TableName, colDiff.ColumnName))
			continue
		}
		up, down := p.generateColumnModification(table, colDiff)
		upSQL = append(upSQL, up...)
		downSQL = append(downSQL, down...)
	}

	for _, fk := range diff.ForeignKeysAdded {
		if p.options.Dialect == SQLite {
			upSQL = append(upSQL, fmt.Sprintf("-- MANUAL MIGRATION REQUIRED: rebuild %s to add %s", diff.TableName, fk.Name))
			continue
		}
		upSQL = append(upSQL, fmt.Sprintf("ALTER TABLE %s ADD %s;", table, p.generateForeignKeyDefinition(fk)))
		downSQL = append(downSQL, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", table, quoteIdent(fk.Name)))
	}

	for _, fk := range diff.ForeignKeysDropped {
		if p.options.Dialect == SQLite {
			upSQL = append(upSQL, fmt.Sprintf("-- MANUAL MIGRATION REQUIRED: rebuild %s to drop %s", diff.TableName, fk.Name))
			continue
		}
		upSQL = append(upSQL, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", table, quoteIdent(fk.Name)))
		downSQL = append(downSQL, fmt.Sprintf("ALTER TABLE %s ADD %s;", table, p.generateForeignKeyDefinition(fk)))
	}

	return upSQL, downSQL
}

// generateColumnModification generates ALTER statements for column changes.
// Each down statement undoes the up statement at the same index.
func (p *Planner) generateColumnModification(table string, colDiff ColumnDiff) (upSQL, downSQL []string) {
	col := quoteIdent(colDiff.ColumnName)
	oldCol, newCol := colDiff.OldColumn, colDiff.NewColumn

	if colDiff.TypeChanged {
		upSQL = append(upSQL, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", table, col, normalizeType(newCol.SQLType)))
		downSQL = append(downSQL, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", table, col, normalizeType(oldCol.SQLType)))
	}

	if colDiff.NullChanged {
		setNotNull := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, col)
		dropNotNull := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", table, col)
		if newCol.Nullable {
			upSQL = append(upSQL, dropNotNull)
			downSQL = append(downSQL, setNotNull)
		} else {
			upSQL = append(upSQL, setNotNull)
			downSQL = append(downSQL, dropNotNull)
		}
	}

	if colDiff.UniqueChanged {
		name := quoteIdent(uniqueConstraintName(table, colDiff.ColumnName))
		addUnique := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", table, name, col)
		dropUnique := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", table, name)
		if newCol.Unique {
			upSQL = append(upSQL, addUnique)
			downSQL = append(downSQL, dropUnique)
		} else {
			upSQL = append(upSQL, dropUnique)
			downSQL = append(downSQL, addUnique)
		}
	}

	return upSQL, downSQL
}

// uniqueConstraintName follows PostgreSQL's naming for inline UNIQUE.
func uniqueConstraintName(quotedTable, column string) string {
	return strings.Trim(quotedTable, `"`) + "_" + column + "_key"
}
