package builder

import "reflect"

// Col returns the column name the registry holds for a Go field of T. It
// falls back to the field name when T or the field is unknown, which then
// fails at the database.
//
//	builder.Eq(builder.Col[models.User](db, "Email"), email)
func Col[T any](d *DB, goFieldName string) string {
	table, err := d.tableFor(reflect.TypeFor[T]())
	if err != nil {
		return goFieldName
	}

	column := table.GetColumnByField(goFieldName)
	if column == nil {
		return goFieldName
	}

	return column.Name
}
