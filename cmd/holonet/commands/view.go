package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/marshallshelly/holonet/pkg/migration"
	"github.com/marshallshelly/holonet/pkg/schema"
	"gopkg.in/yaml.v3"
)

// tableView is the serialized form of a table for show and inspect.
type tableView struct {
	Name          string           `json:"name" yaml:"name"`
	PrimaryKey    []string         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Columns       []columnView     `json:"columns" yaml:"columns"`
	ForeignKeys   []foreignKeyView `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Relationships []relationView   `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

type columnView struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
	Unique   bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

type foreignKeyView struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []string `json:"columns" yaml:"columns"`
	References string   `json:"references" yaml:"references"`
	OnDelete   string   `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
}

type relationView struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Target    string `json:"target" yaml:"target"`
	Key       string `json:"key" yaml:"key"`
	JoinTable string `json:"join_table,omitempty" yaml:"join_table,omitempty"`
	Cascade   bool   `json:"cascade,omitempty" yaml:"cascade,omitempty"`
}

func newTableView(t *schema.TableMetadata) tableView {
	v := tableView{Name: t.Name}
	if t.PrimaryKey != nil {
		v.PrimaryKey = t.PrimaryKey.Columns
	}

	for _, col := range t.Columns {
		cv := columnView{
			Name:     col.Name,
			Type:     col.SQLType,
			Nullable: col.Nullable,
			Unique:   col.Unique,
		}
		if col.Default != nil {
			cv.Default = *col.Default
		}
		v.Columns = append(v.Columns, cv)
	}

	for _, fk := range t.ForeignKeys {
		fv := foreignKeyView{
			Name:       fk.Name,
			Columns:    fk.Columns,
			References: fmt.Sprintf("%s(%s)", fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", ")),
		}
		if fk.OnDelete != "" && fk.OnDelete != schema.NoAction {
			fv.OnDelete = string(fk.OnDelete)
		}
		v.ForeignKeys = append(v.ForeignKeys, fv)
	}

	for _, rel := range t.Relationships {
		v.Relationships = append(v.Relationships, relationView{
			Name:      rel.Name,
			Type:      string(rel.Type),
			Target:    rel.TargetTable,
			Key:       rel.ForeignKey,
			JoinTable: rel.JoinTable,
			Cascade:   rel.Cascade,
		})
	}
	return v
}

func newSchemaView(tables []*schema.TableMetadata) []tableView {
	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, newTableView(t))
	}
	return views
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeTable prints one table as the text form of schema show.
func writeTable(w io.Writer, t tableView) {
	fmt.Fprintf(w, "Table: %s\n", t.Name)
	fmt.Fprintln(w, strings.Repeat("=", len(t.Name)+7))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Columns:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tNULLABLE\tUNIQUE\tDEFAULT")
	fmt.Fprintln(tw, "----\t----\t--------\t------\t-------")
	for _, col := range t.Columns {
		def := "-"
		if col.Default != "" {
			def = col.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", col.Name, col.Type, yesNo(col.Nullable), yesNo(col.Unique), def)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	if len(t.PrimaryKey) > 0 {
		fmt.Fprintf(w, "Primary Key: %s\n\n", strings.Join(t.PrimaryKey, ", "))
	}

	if len(t.ForeignKeys) > 0 {
		fmt.Fprintln(w, "Foreign Keys:")
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(w, "  %s: (%s) -> %s", fk.Name, strings.Join(fk.Columns, ", "), fk.References)
			if fk.OnDelete != "" {
				fmt.Fprintf(w, " ON DELETE %s", fk.OnDelete)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(t.Relationships) > 0 {
		fmt.Fprintln(w, "Relationships:")
		for _, rel := range t.Relationships {
			fmt.Fprintf(w, "  %s: %s %s", rel.Name, rel.Type, rel.Target)
			if rel.JoinTable != "" {
				fmt.Fprintf(w, " via %s", rel.JoinTable)
			}
			fmt.Fprintf(w, " (%s)", rel.Key)
			if rel.Cascade {
				fmt.Fprint(w, " cascade")
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
}

func writeTableSummary(w io.Writer, t tableView) {
	fmt.Fprintf(w, "Table: %s\n", t.Name)
	fmt.Fprintf(w, "  Columns: %d\n", len(t.Columns))
	if len(t.PrimaryKey) > 0 {
		fmt.Fprintf(w, "  Primary Key: %s\n", strings.Join(t.PrimaryKey, ", "))
	}
	if len(t.ForeignKeys) > 0 {
		fmt.Fprintf(w, "  Foreign Keys: %d\n", len(t.ForeignKeys))
	}
	if len(t.Relationships) > 0 {
		fmt.Fprintf(w, "  Relationships: %d\n", len(t.Relationships))
	}
}

// writeDiff prints a human summary of diff, one line per change.
func writeDiff(w io.Writer, diff *migration.SchemaDiff) {
	for _, t := range diff.TablesAdded {
		fmt.Fprintf(w, "  + %s (%d columns)\n", t.Name, len(t.Columns))
	}
	for _, t := range diff.TablesDropped {
		fmt.Fprintf(w, "  - %s\n", t.Name)
	}
	for _, td := range diff.TablesModified {
		fmt.Fprintf(w, "  ~ %s\n", td.TableName)
		for _, col := range td.ColumnsAdded {
			fmt.Fprintf(w, "      + column: %s %s\n", col.Name, col.SQLType)
		}
		for _, col := range td.ColumnsDropped {
			fmt.Fprintf(w, "      - column: %s\n", col.Name)
		}
		for _, cd := range td.ColumnsModified {
			fmt.Fprintf(w, "      ~ column: %s (%s)\n", cd.ColumnName, strings.Join(columnChanges(cd), ", "))
		}
		for _, fk := range td.ForeignKeysAdded {
			fmt.Fprintf(w, "      + foreign key: %s\n", fk.Name)
		}
		for _, fk := range td.ForeignKeysDropped {
			fmt.Fprintf(w, "      - foreign key: %s\n", fk.Name)
		}
	}
}

func columnChanges(cd migration.ColumnDiff) []string {
	var changes []string
	if cd.TypeChanged {
		changes = append(changes, fmt.Sprintf("type: %s -> %s", cd.OldColumn.SQLType, cd.NewColumn.SQLType))
	}
	if cd.NullChanged {
		changes = append(changes, fmt.Sprintf("%s -> %s", nullability(cd.OldColumn.Nullable), nullability(cd.NewColumn.Nullable)))
	}
	if cd.UniqueChanged {
		changes = append(changes, fmt.Sprintf("unique: %s -> %s", yesNo(cd.OldColumn.Unique), yesNo(cd.NewColumn.Unique)))
	}
	return changes
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
