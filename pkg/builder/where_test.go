package builder

import (
	"testing"
)

func TestWhereBuilder_Build(t *testing.T) {
	tests := []struct {
		name           string
		conditions     []Condition
		expectedSQL    string
		expectedArgLen int
	}{
		{
			name:        "empty conditions",
			conditions:  []Condition{},
			expectedSQL: "",
		},
		{
			name:           "single equality condition",
			conditions:     []Condition{Eq("user_id", 1)},
			expectedSQL:    "WHERE user_id = $1",
			expectedArgLen: 1,
		},
		{
			name:           "multiple AND conditions",
			conditions:     []Condition{Eq("post_id", 2), Neq("user_id", 1)},
			expectedSQL:    "WHERE post_id = $1 AND user_id != $2",
			expectedArgLen: 2,
		},
		{
			name:           "OR condition",
			conditions:     []Condition{Eq("id", 1), Or(Eq("id", 2))},
			expectedSQL:    "WHERE id = $1 OR id = $2",
			expectedArgLen: 2,
		},
		{
			name:           "IN condition",
			conditions:     []Condition{In("id", 1, 2, 3)},
			expectedSQL:    "WHERE id IN ($1, $2, $3)",
			expectedArgLen: 3,
		},
		{
			name:        "empty IN matches nothing",
			conditions:  []Condition{In("id")},
			expectedSQL: "WHERE FALSE",
		},
		{
			name:        "empty NOT IN matches everything",
			conditions:  []Condition{NotIn("id")},
			expectedSQL: "WHERE TRUE",
		},
		{
			name:        "IS NULL condition",
			conditions:  []Condition{IsNull("first_name")},
			expectedSQL: "WHERE first_name IS NULL",
		},
		{
			name:           "ILIKE condition",
			conditions:     []Condition{ILike("email", "%@holonet.io")},
			expectedSQL:    "WHERE email ILIKE $1",
			expectedArgLen: 1,
		},
		{
			name:           "NOT condition",
			conditions:     []Condition{Not(Eq("is_active", true))},
			expectedSQL:    "WHERE NOT (is_active = $1)",
			expectedArgLen: 1,
		},
		{
			name: "grouped conditions keep numbering",
			conditions: []Condition{
				Eq("is_active", true),
				Group(Gt("id", 10), Or(Lte("id", 2))),
				Gte("id", 0),
			},
			expectedSQL:    "WHERE is_active = $1 AND (id > $2 OR id <= $3) AND id >= $4",
			expectedArgLen: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := NewWhereBuilder(tt.conditions...).Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if sql != tt.expectedSQL {
				t.Errorf("Build() sql = %v, want %v", sql, tt.expectedSQL)
			}
			if len(args) != tt.expectedArgLen {
				t.Errorf("Build() args length = %v, want %v", len(args), tt.expectedArgLen)
			}
		})
	}
}

func TestWhereBuilder_WithStart(t *testing.T) {
	sql, args, err := NewWhereBuilderWithStart(3, Eq("id", 1), Like("email", "a%")).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if sql != "WHERE id = $3 AND email LIKE $4" {
		t.Errorf("unexpected sql %s", sql)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestWhereBuilder_Errors(t *testing.T) {
	bad := []Condition{
		{Column: "id", Operator: "~~~", Value: 1},
		{Column: "id", Operator: OpIn, Value: 1},
		{Operator: OpEqual, Value: 1},
	}
	for _, cond := range bad {
		if _, _, err := NewWhereBuilder(cond).Build(); err == nil {
			t.Errorf("expected error for %+v", cond)
		}
	}
}

func TestConditionHelpers(t *testing.T) {
	tests := []struct {
		cond Condition
		op   Operator
	}{
		{Eq("a", 1), OpEqual},
		{Neq("a", 1), OpNotEqual},
		{Gt("a", 1), OpGreaterThan},
		{Gte("a", 1), OpGreaterThanOrEqual},
		{Lt("a", 1), OpLessThan},
		{Lte("a", 1), OpLessThanOrEqual},
		{In("a", 1), OpIn},
		{NotIn("a", 1), OpNotIn},
		{Like("a", "x"), OpLike},
		{ILike("a", "x"), OpILike},
		{IsNull("a"), OpIsNull},
		{IsNotNull("a"), OpIsNotNull},
	}
	for _, tt := range tests {
		if tt.cond.Operator != tt.op {
			t.Errorf("expected %s, got %s", tt.op, tt.cond.Operator)
		}
		if tt.cond.Logic != LogicAnd {
			t.Errorf("%s: expected AND logic by default", tt.op)
		}
	}

	if Or(Eq("a", 1)).Logic != LogicOr {
		t.Error("Or() did not set correct logic operator")
	}
	if !Not(Eq("a", 1)).Not {
		t.Error("Not() did not set Not flag")
	}
}
