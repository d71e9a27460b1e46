package builder

import (
	"context"
	"fmt"
	"strings"
)

// Where adds a WHERE condition to the DELETE query.
func (q *DeleteQuery[T]) Where(condition Condition) *DeleteQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// Returning specifies columns to return after delete.
func (q *DeleteQuery[T]) Returning(columns ...string) *DeleteQuery[T] {
	q.returning = columns
	return q
}

// ToSQL generates the DELETE SQL and arguments. A DELETE without conditions
// is refused.
func (q *DeleteQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.table == nil {
		return "", nil, fmt.Errorf("table metadata not available")
	}
	if len(q.where) == 0 {
		return "", nil, fmt.Errorf("delete from %s without WHERE clause", q.table.Name)
	}

	var sql strings.Builder
	sql.WriteString("DELETE FROM ")
	sql.WriteString(q.table.Name)

	whereSQL, args, err := NewWhereBuilder(q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	sql.WriteString(" ")
	sql.WriteString(whereSQL)

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the DELETE query and returns the number of deleted rows.
func (q *DeleteQuery[T]) Exec(ctx context.Context) (int64, error) {
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
