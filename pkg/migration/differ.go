package migration

import (
	"slices"
	"sort"
	"strings"

	"github.com/marshallshelly/holonet/pkg/registry"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// Differ compares schemas and generates diffs.
type Differ struct{}

// NewDiffer creates a new schema differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Compare compares the code schema (parsed from models) with the database
// schema (introspected). Output is deterministic: added tables come in
// dependency order, dropped tables in reverse, everything else by name.
func (d *Differ) Compare(codeSchema, dbSchema map[string]*schema.TableMetadata) (*SchemaDiff, error) {
	diff := &SchemaDiff{}

	added := make(map[string]*schema.TableMetadata)
	for name, table := range codeSchema {
		if _, exists := dbSchema[name]; !exists {
			added[name] = table
		}
	}
	ordered, err := registry.SortByDependency(added)
	if err != nil {
		return nil, err
	}
	diff.TablesAdded = ordered

	dropped := make(map[string]*schema.TableMetadata)
	for name, table := range dbSchema {
		if _, exists := codeSchema[name]; !exists {
			dropped[name] = table
		}
	}
	ordered, err = registry.SortByDependency(dropped)
	if err != nil {
		return nil, err
	}
	slices.Reverse(ordered)
	diff.TablesDropped = ordered

	for _, name := range sortedNames(codeSchema) {
		dbTable, exists := dbSchema[name]
		if !exists {
			continue
		}
		tableDiff := d.compareTable(codeSchema[name], dbTable)
		if tableDiff.HasChanges() {
			diff.TablesModified = append(diff.TablesModified, tableDiff)
		}
	}

	return diff, nil
}

// compareTable compares two versions of the same table.
func (d *Differ) compareTable(codeTable, dbTable *schema.TableMetadata) TableDiff {
	diff := TableDiff{TableName: codeTable.Name}
	d.compareColumns(codeTable, dbTable, &diff)
	d.compareForeignKeys(codeTable, dbTable, &diff)
	return diff
}

// compareColumns compares columns between code and database. Added and
// modified columns keep code order, dropped columns keep database order.
func (d *Differ) compareColumns(codeTable, dbTable *schema.TableMetadata, diff *TableDiff) {
	for _, codeCol := range codeTable.Columns {
		dbCol := dbTable.GetColumnByName(codeCol.Name)
		if dbCol == nil {
			diff.ColumnsAdded = append(diff.ColumnsAdded, codeCol)
			continue
		}
		colDiff := d.compareColumn(codeCol, *dbCol)
		if colDiff.hasChanges() {
			diff.ColumnsModified = append(diff.ColumnsModified, colDiff)
		}
	}

	for _, dbCol := range dbTable.Columns {
		if codeTable.GetColumnByName(dbCol.Name) == nil {
			diff.ColumnsDropped = append(diff.ColumnsDropped, dbCol)
		}
	}
}

// compareColumn compares two versions of the same column.
func (d *Differ) compareColumn(codeCol, dbCol schema.ColumnMetadata) ColumnDiff {
	return ColumnDiff{
		ColumnName:    codeCol.Name,
		OldColumn:     dbCol,
		NewColumn:     codeCol,
		TypeChanged:   !d.isSameType(codeCol.SQLType, dbCol.SQLType),
		NullChanged:   codeCol.Nullable != dbCol.Nullable,
		UniqueChanged: codeCol.Unique != dbCol.Unique,
	}
}

// compareForeignKeys compares foreign keys by constraint name.
func (d *Differ) compareForeignKeys(codeTable, dbTable *schema.TableMetadata, diff *TableDiff) {
	dbFKs := make(map[string]bool, len(dbTable.ForeignKeys))
	for _, fk := range dbTable.ForeignKeys {
		dbFKs[fk.Name] = true
	}
	codeFKs := make(map[string]bool, len(codeTable.ForeignKeys))
	for _, fk := range codeTable.ForeignKeys {
		codeFKs[fk.Name] = true
		if !dbFKs[fk.Name] {
			diff.ForeignKeysAdded = append(diff.ForeignKeysAdded, fk)
		}
	}
	for _, fk := range dbTable.ForeignKeys {
		if !codeFKs[fk.Name] {
			diff.ForeignKeysDropped = append(diff.ForeignKeysDropped, fk)
		}
	}
}

// isSameType compares SQL types, normalizing for common variations.
func (d *Differ) isSameType(type1, type2 string) bool {
	return normalizeType(type1) == normalizeType(type2)
}

// normalizeType normalizes SQL type strings for comparison. Serial
// pseudotypes map to their underlying integer types.
func normalizeType(sqlType string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(sqlType)), " ")

	switch normalized {
	case "int", "int4", "serial", "serial4":
		return "integer"
	case "int2", "smallserial", "serial2":
		return "smallint"
	case "int8", "bigserial", "serial8":
		return "bigint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "timestamp without time zone":
		return "timestamp"
	case "timestamp with time zone":
		return "timestamptz"
	}

	if rest, ok := strings.CutPrefix(normalized, "character varying"); ok {
		return "varchar" + strings.ReplaceAll(rest, " ", "")
	}

	return normalized
}

func sortedNames(tables map[string]*schema.TableMetadata) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
