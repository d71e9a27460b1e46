package builder

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/holonet/pkg/runtime"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// collectRows scans every row into a T and closes rows. Errors surfacing
// while reading (constraint violations on INSERT ... RETURNING arrive this
// way) are classified against query.
func collectRows[T any](rows pgx.Rows, table *schema.TableMetadata, query string) ([]T, error) {
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, table); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, runtime.ClassifyError(query, err)
	}

	return results, nil
}

// scanIntoStruct scans a database row into a struct, matching result
// columns to fields by column name. Unknown result columns are discarded.
func scanIntoStruct(rows pgx.Rows, dest any, table *schema.TableMetadata) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Pointer {
		return fmt.Errorf("dest must be a pointer to struct")
	}
	destValue = destValue.Elem()
	if destValue.Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	fieldDescriptions := rows.FieldDescriptions()
	scanTargets := make([]any, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		col := table.GetColumnByName(fd.Name)
		if col == nil {
			continue
		}
		field := destValue.FieldByName(col.GoField)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		scanTargets[i] = field.Addr().Interface()
	}

	for i := range scanTargets {
		if scanTargets[i] == nil {
			var discard any
			scanTargets[i] = &discard
		}
	}

	if err := rows.Scan(scanTargets...); err != nil {
		return fmt.Errorf("failed to scan row: %w", err)
	}

	return nil
}

// structToValues converts a struct to column names and values in column
// order. Zero-valued auto-increment keys are left to the database, and so
// are zero-valued columns that carry a default.
func structToValues(model any, table *schema.TableMetadata, skipGenerated bool) ([]string, []any, error) {
	modelValue := reflect.ValueOf(model)
	if modelValue.Kind() == reflect.Pointer {
		if modelValue.IsNil() {
			return nil, nil, fmt.Errorf("model must not be nil")
		}
		modelValue = modelValue.Elem()
	}
	if modelValue.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct")
	}

	var columns []string
	var values []any

	for _, col := range table.Columns {
		field := modelValue.FieldByName(col.GoField)
		if !field.IsValid() {
			continue
		}

		if skipGenerated && field.IsZero() && (col.AutoIncrement || col.Default != nil) {
			continue
		}

		columns = append(columns, col.Name)
		values = append(values, field.Interface())
	}

	return columns, values, nil
}

// primaryKeyValues returns the primary key columns of table and their values
// in model.
func primaryKeyValues(model any, table *schema.TableMetadata) ([]string, []any, error) {
	if table.PrimaryKey == nil || len(table.PrimaryKey.Columns) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", table.Name, runtime.ErrNoPrimaryKey)
	}

	modelValue := reflect.Indirect(reflect.ValueOf(model))
	values := make([]any, 0, len(table.PrimaryKey.Columns))
	for _, name := range table.PrimaryKey.Columns {
		value, err := columnValue(modelValue, table, name)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, value)
	}

	return table.PrimaryKey.Columns, values, nil
}

// columnValue reads the field backing column name from a struct value.
func columnValue(modelValue reflect.Value, table *schema.TableMetadata, name string) (any, error) {
	col := table.GetColumnByName(name)
	if col == nil {
		return nil, fmt.Errorf("table %s has no column %s", table.Name, name)
	}
	field := modelValue.FieldByName(col.GoField)
	if !field.IsValid() {
		return nil, fmt.Errorf("%s has no field %s", modelValue.Type(), col.GoField)
	}
	return field.Interface(), nil
}
