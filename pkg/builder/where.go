package builder

import (
	"fmt"
	"strings"
)

// WhereBuilder helps build WHERE clauses.
type WhereBuilder struct {
	conditions []Condition
	paramStart int
}

// NewWhereBuilder creates a new WhereBuilder numbering parameters from $1.
func NewWhereBuilder(conditions ...Condition) *WhereBuilder {
	return NewWhereBuilderWithStart(1, conditions...)
}

// NewWhereBuilderWithStart creates a new WhereBuilder with a starting parameter number.
func NewWhereBuilderWithStart(paramStart int, conditions ...Condition) *WhereBuilder {
	return &WhereBuilder{
		conditions: conditions,
		paramStart: paramStart,
	}
}

// Build generates the WHERE clause SQL and arguments.
func (w *WhereBuilder) Build() (string, []any, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	sql, args, err := buildConditions(w.conditions, w.paramStart)
	if err != nil {
		return "", nil, err
	}

	return "WHERE " + sql, args, nil
}

// buildConditions recursively builds conditions.
func buildConditions(conditions []Condition, paramStart int) (string, []any, error) {
	var parts []string
	var args []any
	paramNum := paramStart

	for i, cond := range conditions {
		var condSQL string
		var condArgs []any
		var err error

		if len(cond.Group) > 0 {
			condSQL, condArgs, err = buildConditions(cond.Group, paramNum)
			condSQL = "(" + condSQL + ")"
		} else {
			condSQL, condArgs, err = buildCondition(cond, paramNum)
		}
		if err != nil {
			return "", nil, err
		}

		if cond.Not {
			condSQL = "NOT (" + condSQL + ")"
		}

		parts = append(parts, condSQL)
		args = append(args, condArgs...)
		paramNum += len(condArgs)

		// Logic belongs to the condition that follows it.
		if i < len(conditions)-1 {
			logic := conditions[i+1].Logic
			if logic == "" {
				logic = LogicAnd
			}
			parts[len(parts)-1] += " " + string(logic)
		}
	}

	return strings.Join(parts, " "), args, nil
}

// buildCondition builds a single condition.
func buildCondition(cond Condition, paramNum int) (string, []any, error) {
	if cond.Column == "" {
		return "", nil, fmt.Errorf("condition has no column")
	}

	switch cond.Operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpLike, OpILike:
		return fmt.Sprintf("%s %s $%d", cond.Column, cond.Operator, paramNum), []any{cond.Value}, nil

	case OpIn, OpNotIn:
		values, ok := cond.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("%s operator requires []any value", cond.Operator)
		}
		// An empty list matches nothing (IN) or everything (NOT IN).
		if len(values) == 0 {
			if cond.Operator == OpIn {
				return "FALSE", nil, nil
			}
			return "TRUE", nil, nil
		}

		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = fmt.Sprintf("$%d", paramNum+i)
		}
		return fmt.Sprintf("%s %s (%s)", cond.Column, cond.Operator, strings.Join(placeholders, ", ")), values, nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", cond.Column, cond.Operator), nil, nil

	default:
		return "", nil, fmt.Errorf("unknown operator: %s", cond.Operator)
	}
}

func newCondition(column string, op Operator, value any) Condition {
	return Condition{Column: column, Operator: op, Value: value, Logic: LogicAnd}
}

// Eq creates an equality condition.
func Eq(column string, value any) Condition { return newCondition(column, OpEqual, value) }

// Neq creates a not-equal condition.
func Neq(column string, value any) Condition { return newCondition(column, OpNotEqual, value) }

// Gt creates a greater-than condition.
func Gt(column string, value any) Condition { return newCondition(column, OpGreaterThan, value) }

// Gte creates a greater-than-or-equal condition.
func Gte(column string, value any) Condition {
	return newCondition(column, OpGreaterThanOrEqual, value)
}

// Lt creates a less-than condition.
func Lt(column string, value any) Condition { return newCondition(column, OpLessThan, value) }

// Lte creates a less-than-or-equal condition.
func Lte(column string, value any) Condition {
	return newCondition(column, OpLessThanOrEqual, value)
}

// In creates an IN condition.
func In(column string, values ...any) Condition { return newCondition(column, OpIn, values) }

// NotIn creates a NOT IN condition.
func NotIn(column string, values ...any) Condition { return newCondition(column, OpNotIn, values) }

// Like creates a LIKE condition.
func Like(column string, pattern string) Condition { return newCondition(column, OpLike, pattern) }

// ILike creates an ILIKE condition (case-insensitive).
func ILike(column string, pattern string) Condition { return newCondition(column, OpILike, pattern) }

// IsNull creates an IS NULL condition.
func IsNull(column string) Condition { return newCondition(column, OpIsNull, nil) }

// IsNotNull creates an IS NOT NULL condition.
func IsNotNull(column string) Condition { return newCondition(column, OpIsNotNull, nil) }

// Or sets the logic operator to OR for the next condition.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Not negates a condition.
func Not(cond Condition) Condition {
	cond.Not = true
	return cond
}

// Group creates a grouped condition.
func Group(conditions ...Condition) Condition {
	return Condition{
		Group: conditions,
		Logic: LogicAnd,
	}
}
