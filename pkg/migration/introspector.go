package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/holonet/pkg/runtime"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// Introspector reads the live table layout of the public schema.
type Introspector struct {
	db runtime.Executor
}

// NewIntrospector creates a new database introspector.
func NewIntrospector(db runtime.Executor) *Introspector {
	return &Introspector{db: db}
}

// TableNames lists the tables in the public schema, excluding the migration
// tracking table, sorted by name.
func (i *Introspector) TableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		  AND table_name != $1
		ORDER BY table_name
	`

	rows, err := i.db.Query(ctx, query, trackingTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// IntrospectSchema introspects every table TableNames returns.
func (i *Introspector) IntrospectSchema(ctx context.Context) (map[string]*schema.TableMetadata, error) {
	names, err := i.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	tables := make(map[string]*schema.TableMetadata, len(names))
	for _, name := range names {
		table, err := i.IntrospectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
		}
		tables[name] = table
	}

	return tables, nil
}

// IntrospectTable introspects a single table.
func (i *Introspector) IntrospectTable(ctx context.Context, tableName string) (*schema.TableMetadata, error) {
	table := &schema.TableMetadata{Name: tableName}

	columns, err := i.getColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	table.Columns = columns

	if table.PrimaryKey, err = i.getPrimaryKey(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}

	if table.ForeignKeys, err = i.getForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	unique, err := i.getUniqueColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique constraints: %w", err)
	}
	for idx := range table.Columns {
		table.Columns[idx].Unique = unique[table.Columns[idx].Name]
	}

	return table, nil
}

// getColumns retrieves column information for a table.
func (i *Introspector) getColumns(ctx context.Context, tableName string) ([]schema.ColumnMetadata, error) {
	query := `
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.ColumnMetadata
	for rows.Next() {
		var col schema.ColumnMetadata
		var dataType, isNullable string
		var maxLength *int
		var position int

		if err := rows.Scan(&col.Name, &dataType, &maxLength, &isNullable, &col.Default, &position); err != nil {
			return nil, err
		}

		col.SQLType = buildSQLType(dataType, maxLength)
		col.Nullable = isNullable == "YES"
		col.Position = position - 1
		if col.Default != nil && strings.Contains(*col.Default, "nextval") {
			col.AutoIncrement = true
			col.SQLType = "serial"
			col.Default = nil
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// getPrimaryKey retrieves primary key information. A table without one
// yields nil.
func (i *Introspector) getPrimaryKey(ctx context.Context, tableName string) (*schema.PrimaryKeyMetadata, error) {
	query := `
		SELECT tc.constraint_name, array_agg(kcu.column_name::text ORDER BY kcu.ordinal_position)
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'PRIMARY KEY'
		GROUP BY tc.constraint_name
	`

	pk := &schema.PrimaryKeyMetadata{}
	err := i.db.QueryRow(ctx, query, tableName).Scan(&pk.Name, &pk.Columns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return pk, nil
}

// getForeignKeys retrieves foreign key information.
func (i *Introspector) getForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKeyMetadata, error) {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(DISTINCT kcu.column_name::text),
			ccu.table_name,
			array_agg(DISTINCT ccu.column_name::text),
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'FOREIGN KEY'
		GROUP BY tc.constraint_name, ccu.table_name, rc.update_rule, rc.delete_rule
		ORDER BY tc.constraint_name
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []schema.ForeignKeyMetadata
	for rows.Next() {
		var fk schema.ForeignKeyMetadata
		var updateRule, deleteRule string

		if err := rows.Scan(&fk.Name, &fk.Columns, &fk.ReferencedTable, &fk.ReferencedColumns, &updateRule, &deleteRule); err != nil {
			return nil, err
		}

		fk.OnUpdate = parseReferenceAction(updateRule)
		fk.OnDelete = parseReferenceAction(deleteRule)
		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

// getUniqueColumns returns the columns carrying a single-column UNIQUE
// constraint.
func (i *Introspector) getUniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	query := `
		SELECT min(kcu.column_name::text)
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'UNIQUE'
		GROUP BY tc.constraint_name
		HAVING count(*) = 1
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unique := make(map[string]bool)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, err
		}
		unique[column] = true
	}

	return unique, rows.Err()
}

// buildSQLType constructs the SQL type string the parser would produce.
func buildSQLType(dataType string, maxLength *int) string {
	switch dataType {
	case "character varying":
		if maxLength != nil {
			return fmt.Sprintf("varchar(%d)", *maxLength)
		}
		return "varchar"
	case "character":
		if maxLength != nil {
			return fmt.Sprintf("char(%d)", *maxLength)
		}
		return "char"
	case "timestamp without time zone":
		return "timestamp"
	case "timestamp with time zone":
		return "timestamptz"
	default:
		return dataType
	}
}

// parseReferenceAction converts a PostgreSQL rule to a ReferenceAction.
func parseReferenceAction(rule string) schema.ReferenceAction {
	switch strings.ToUpper(rule) {
	case "CASCADE":
		return schema.Cascade
	case "SET NULL":
		return schema.SetNull
	case "SET DEFAULT":
		return schema.SetDefault
	case "RESTRICT":
		return schema.Restrict
	default:
		return schema.NoAction
	}
}
