package migration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marshallshelly/holonet/pkg/schema"
)

// ident matches a double-quoted or bare identifier.
const ident = `"((?:[^"]|"")+)"|(\w+)`

var (
	reCreateTable = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:` + ident + `)\s*\((.*)\)$`)
	reDropTable   = regexp.MustCompile(`(?i)^DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:` + ident + `)`)
	reAlterTable  = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(?:` + ident + `)\s+(.+)$`)
	reLeadIdent   = regexp.MustCompile(`^(?:` + ident + `)\s*`)
	reConstraint  = regexp.MustCompile(`(?is)^CONSTRAINT\s+(?:` + ident + `)\s+(.+)$`)
	reForeignKey  = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+(?:` + ident + `)\s*\(([^)]*)\)(.*)$`)
	reOnDelete    = regexp.MustCompile(`(?i)ON\s+DELETE\s+(CASCADE|RESTRICT|SET\s+NULL|SET\s+DEFAULT|NO\s+ACTION)`)
	reOnUpdate    = regexp.MustCompile(`(?i)ON\s+UPDATE\s+(CASCADE|RESTRICT|SET\s+NULL|SET\s+DEFAULT|NO\s+ACTION)`)
	reDefault     = regexp.MustCompile(`(?i)\bDEFAULT\s+(.+?)(?:\s+(?:UNIQUE|NOT\s+NULL|PRIMARY\s+KEY)\b.*)?$`)
)

// Replay folds the DDL of every migration's up script into a table map. It
// understands the statements the planner emits and gives the differ an
// offline baseline when no database is reachable.
func Replay(migrations []Migration) (map[string]*schema.TableMetadata, error) {
	tables := make(map[string]*schema.TableMetadata)
	for _, m := range migrations {
		for _, stmt := range splitSQL(m.UpSQL) {
			if err := applyStatement(tables, stmt); err != nil {
				return nil, fmt.Errorf("migration %s: %w", m.Version, err)
			}
		}
	}
	return tables, nil
}

func applyStatement(tables map[string]*schema.TableMetadata, stmt string) error {
	if m := reCreateTable.FindStringSubmatch(stmt); m != nil {
		table, err := parseCreateTable(pick(m[1], m[2]), m[3])
		if err != nil {
			return err
		}
		tables[table.Name] = table
		return nil
	}

	if m := reDropTable.FindStringSubmatch(stmt); m != nil {
		delete(tables, pick(m[1], m[2]))
		return nil
	}

	if m := reAlterTable.FindStringSubmatch(stmt); m != nil {
		name := pick(m[1], m[2])
		table, ok := tables[name]
		if !ok {
			return fmt.Errorf("alter of unknown table %s", name)
		}
		return applyAlter(table, strings.TrimSpace(m[3]))
	}

	// Anything else (data changes, indexes) does not affect the table layout.
	return nil
}

func parseCreateTable(name, body string) (*schema.TableMetadata, error) {
	table := &schema.TableMetadata{Name: name}

	for _, part := range splitTopLevelCommas(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if m := reConstraint.FindStringSubmatch(part); m != nil {
			if err := applyConstraint(table, pick(m[1], m[2]), m[3]); err != nil {
				return nil, err
			}
			continue
		}

		col, primaryKey, err := parseColumn(part, len(table.Columns))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		table.Columns = append(table.Columns, col)
		if primaryKey {
			table.PrimaryKey = &schema.PrimaryKeyMetadata{Name: name + "_pkey", Columns: []string{col.Name}}
		}
	}

	return table, nil
}

func applyConstraint(table *schema.TableMetadata, name, def string) error {
	upper := strings.ToUpper(def)
	switch {
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		table.PrimaryKey = &schema.PrimaryKeyMetadata{Name: name, Columns: identList(parenBody(def))}
	case strings.HasPrefix(upper, "FOREIGN KEY"):
		m := reForeignKey.FindStringSubmatch(def)
		if m == nil {
			return fmt.Errorf("cannot parse foreign key %s", name)
		}
		fk := schema.ForeignKeyMetadata{
			Name:              name,
			Columns:           identList(m[1]),
			ReferencedTable:   pick(m[2], m[3]),
			ReferencedColumns: identList(m[4]),
			OnDelete:          schema.NoAction,
			OnUpdate:          schema.NoAction,
		}
		if a := reOnDelete.FindStringSubmatch(m[5]); a != nil {
			fk.OnDelete = referenceAction(a[1])
		}
		if a := reOnUpdate.FindStringSubmatch(m[5]); a != nil {
			fk.OnUpdate = referenceAction(a[1])
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
	case strings.HasPrefix(upper, "UNIQUE"):
		cols := identList(parenBody(def))
		if len(cols) == 1 {
			if col := table.GetColumnByName(cols[0]); col != nil {
				col.Unique = true
			}
		}
	}
	return nil
}

func applyAlter(table *schema.TableMetadata, action string) error {
	upper := strings.ToUpper(action)
	switch {
	case strings.HasPrefix(upper, "ADD COLUMN"):
		col, _, err := parseColumn(strings.TrimSpace(action[len("ADD COLUMN"):]), len(table.Columns))
		if err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}
		table.Columns = append(table.Columns, col)

	case strings.HasPrefix(upper, "DROP COLUMN"):
		name := leadingIdent(trimIfExists(action[len("DROP COLUMN"):]))
		kept := table.Columns[:0]
		for _, col := range table.Columns {
			if col.Name != name {
				kept = append(kept, col)
			}
		}
		table.Columns = kept

	case strings.HasPrefix(upper, "ALTER COLUMN"):
		rest := strings.TrimSpace(action[len("ALTER COLUMN"):])
		name := leadingIdent(rest)
		col := table.GetColumnByName(name)
		if col == nil {
			return fmt.Errorf("table %s has no column %s", table.Name, name)
		}
		change := strings.TrimSpace(reLeadIdent.ReplaceAllString(rest, ""))
		changeUpper := strings.ToUpper(change)
		switch {
		case strings.HasPrefix(changeUpper, "TYPE"):
			col.SQLType = strings.TrimSpace(change[len("TYPE"):])
		case changeUpper == "SET NOT NULL":
			col.Nullable = false
		case changeUpper == "DROP NOT NULL":
			col.Nullable = true
		}

	case strings.HasPrefix(upper, "ADD CONSTRAINT"):
		m := reConstraint.FindStringSubmatch(strings.TrimSpace(action[len("ADD"):]))
		if m == nil {
			return fmt.Errorf("cannot parse %q", action)
		}
		return applyConstraint(table, pick(m[1], m[2]), m[3])

	case strings.HasPrefix(upper, "DROP CONSTRAINT"):
		name := leadingIdent(trimIfExists(action[len("DROP CONSTRAINT"):]))
		dropConstraint(table, name)
	}
	return nil
}

func dropConstraint(table *schema.TableMetadata, name string) {
	kept := table.ForeignKeys[:0]
	for _, fk := range table.ForeignKeys {
		if fk.Name != name {
			kept = append(kept, fk)
		}
	}
	table.ForeignKeys = kept

	for i := range table.Columns {
		if uniqueConstraintName(table.Name, table.Columns[i].Name) == name {
			table.Columns[i].Unique = false
		}
	}
	if table.PrimaryKey != nil && table.PrimaryKey.Name == name {
		table.PrimaryKey = nil
	}
}

// parseColumn parses a column definition as written by the planner, e.g.
//
//	"email" varchar(120) NOT NULL UNIQUE
//	"id" INTEGER PRIMARY KEY AUTOINCREMENT
func parseColumn(def string, position int) (schema.ColumnMetadata, bool, error) {
	col := schema.ColumnMetadata{Position: position}

	col.Name = leadingIdent(def)
	if col.Name == "" {
		return col, false, fmt.Errorf("cannot parse column %q", def)
	}
	rest := strings.TrimSpace(reLeadIdent.ReplaceAllString(def, ""))
	upper := strings.ToUpper(rest)

	end := typeTokenEnd(rest)
	col.SQLType = rest[:end]

	primaryKey := strings.Contains(upper, "PRIMARY KEY")
	col.Nullable = !primaryKey && !strings.Contains(upper, "NOT NULL")
	col.Unique = !primaryKey && strings.Contains(upper, "UNIQUE")

	switch strings.ToLower(col.SQLType) {
	case "serial", "bigserial", "smallserial":
		col.AutoIncrement = true
	}
	if strings.Contains(upper, "AUTOINCREMENT") {
		col.AutoIncrement = true
		col.SQLType = "serial"
	}

	if m := reDefault.FindStringSubmatch(rest[end:]); m != nil {
		v := strings.TrimSpace(m[1])
		col.Default = &v
	}

	return col, primaryKey, nil
}

// typeTokenEnd returns the index where the type token ends, keeping
// parenthesized arguments such as varchar(120) or numeric(10, 2).
func typeTokenEnd(s string) int {
	depth := 0
	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ' ', '\t', '\n':
			if depth == 0 {
				return i
			}
		}
	}
	return len(s)
}

// splitTopLevelCommas splits s by commas that are not inside parentheses.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parenBody(s string) string {
	open := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if open < 0 || end < open {
		return ""
	}
	return s[open+1 : end]
}

func identList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if name := leadingIdent(strings.TrimSpace(item)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func leadingIdent(s string) string {
	m := reLeadIdent.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return pick(m[1], m[2])
}

func trimIfExists(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "IF EXISTS") {
		return strings.TrimSpace(s[len("IF EXISTS"):])
	}
	return s
}

// pick returns the quoted capture if present, unescaped, else the bare one
// lowercased the way PostgreSQL folds it.
func pick(quoted, bare string) string {
	if quoted != "" {
		return strings.ReplaceAll(quoted, `""`, `"`)
	}
	return strings.ToLower(bare)
}

func referenceAction(s string) schema.ReferenceAction {
	return parseReferenceAction(strings.Join(strings.Fields(s), " "))
}
