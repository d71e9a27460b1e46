package builder

import (
	"reflect"
	"testing"

	"github.com/marshallshelly/holonet/pkg/models"
)

func TestInsertQuery_ToSQL(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		name       string
		setupQuery func() *InsertQuery[models.Post]
		wantSQL    string
		wantArgs   []any
		wantErr    bool
	}{
		{
			name: "single row insert skips serial id",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db).Values(models.Post{Title: "Hello", Content: "World", UserID: 1})
			},
			wantSQL:  "INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3)",
			wantArgs: []any{"Hello", "World", 1},
		},
		{
			name: "insert with RETURNING",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db).Values(models.Post{Title: "a", Content: "b", UserID: 2}).Returning("id")
			},
			wantSQL:  "INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3) RETURNING id",
			wantArgs: []any{"a", "b", 2},
		},
		{
			name: "multiple rows",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db).Values(
					models.Post{Title: "a", Content: "b", UserID: 1},
					models.Post{Title: "c", Content: "d", UserID: 1},
				)
			},
			wantSQL:  "INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3), ($4, $5, $6)",
			wantArgs: []any{"a", "b", 1, "c", "d", 1},
		},
		{
			name: "on conflict do nothing",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db).Values(models.Post{Title: "a", Content: "b", UserID: 1}).OnConflictDoNothing("id")
			},
			wantSQL:  "INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
			wantArgs: []any{"a", "b", 1},
		},
		{
			name: "no values",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db)
			},
			wantErr: true,
		},
		{
			name: "rows with differing columns",
			setupQuery: func() *InsertQuery[models.Post] {
				return Insert[models.Post](db).Values(
					models.Post{Title: "a", Content: "b", UserID: 1},
					models.Post{ID: 5, Title: "c", Content: "d", UserID: 1},
				)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.setupQuery().ToSQL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToSQL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if sql != tt.wantSQL {
				t.Errorf("ToSQL() sql = %v, want %v", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("ToSQL() args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestInsertQuery_NullableColumns(t *testing.T) {
	db := testDB(t)

	sql, args, err := Insert[models.Planet](db).Values(models.Planet{Name: models.String("Hoth")}).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "INSERT INTO planets (name, climate, terrain, population) VALUES ($1, $2, $3, $4)"
	if sql != want {
		t.Errorf("sql = %v, want %v", sql, want)
	}
	if climate, ok := args[1].(*string); !ok || climate != nil {
		t.Errorf("expected nil *string for climate, got %#v", args[1])
	}
}

func TestInsertQuery_JoinTable(t *testing.T) {
	db := testDB(t)

	sql, args, err := Insert[models.UserPlanet](db).Values(models.UserPlanet{UserID: 1, PlanetID: 2}).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	if sql != "INSERT INTO user_planets (user_id, planet_id) VALUES ($1, $2)" {
		t.Errorf("unexpected sql %s", sql)
	}
	if !reflect.DeepEqual(args, []any{1, 2}) {
		t.Errorf("unexpected args %v", args)
	}
}
