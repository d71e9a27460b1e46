package builder

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Set sets a column value for the UPDATE.
func (q *UpdateQuery[T]) Set(column string, value any) *UpdateQuery[T] {
	q.sets[column] = value
	return q
}

// SetMap sets multiple column values from a map.
func (q *UpdateQuery[T]) SetMap(values map[string]any) *UpdateQuery[T] {
	for col, val := range values {
		q.sets[col] = val
	}
	return q
}

// SetModel sets every non-key column from model and restricts the update to
// model's primary key.
func (q *UpdateQuery[T]) SetModel(model T) *UpdateQuery[T] {
	if q.err != nil {
		return q
	}

	columns, values, err := structToValues(model, q.table, false)
	if err != nil {
		q.err = err
		return q
	}
	for i, col := range columns {
		if q.table.IsPrimaryKey(col) {
			continue
		}
		q.sets[col] = values[i]
	}

	keys, keyValues, err := primaryKeyValues(model, q.table)
	if err != nil {
		q.err = err
		return q
	}
	for i, key := range keys {
		q.where = append(q.where, Eq(key, keyValues[i]))
	}

	return q
}

// Where adds a WHERE condition.
func (q *UpdateQuery[T]) Where(condition Condition) *UpdateQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// Returning specifies columns to return after update.
func (q *UpdateQuery[T]) Returning(columns ...string) *UpdateQuery[T] {
	q.returning = columns
	return q
}

// ToSQL generates the UPDATE SQL and arguments. SET columns are emitted in
// name order.
func (q *UpdateQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.table == nil {
		return "", nil, fmt.Errorf("table metadata not available")
	}
	if len(q.sets) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}
	if len(q.where) == 0 {
		return "", nil, fmt.Errorf("update of %s without WHERE clause", q.table.Name)
	}

	var sql strings.Builder
	var args []any
	paramNum := 1

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" SET ")

	columns := make([]string, 0, len(q.sets))
	for col := range q.sets {
		columns = append(columns, col)
	}
	slices.Sort(columns)

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = $%d", col, paramNum)
		args = append(args, q.sets[col])
		paramNum++
	}
	sql.WriteString(strings.Join(setClauses, ", "))

	whereSQL, whereArgs, err := NewWhereBuilderWithStart(paramNum, q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	sql.WriteString(" ")
	sql.WriteString(whereSQL)
	args = append(args, whereArgs...)

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the UPDATE query and returns the number of affected rows.
func (q *UpdateQuery[T]) Exec(ctx context.Context) (int64, error) {
	q.returning = nil

	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}

	exec, err := q.db.executor()
	if err != nil {
		return 0, err
	}
	return exec.Exec(ctx, sql, args...)
}

// ExecReturning executes the UPDATE and returns the updated rows.
func (q *UpdateQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}

	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	exec, err := q.db.executor()
	if err != nil {
		return nil, err
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return collectRows[T](rows, q.table, sql)
}
