package schema

import (
	"errors"
	"reflect"
	"testing"
)

type vUser struct {
	ID int `po:"id,primaryKey,serial"`
}

func (vUser) TableName() string { return "users" }

func (vUser) Relations() []Relation {
	return []Relation{
		{Name: "Posts", Type: HasMany, Target: "posts", Cascade: true, Inverse: "Author"},
		{Name: "FavoritePlanets", Type: ManyToMany, Target: "planets", JoinTable: "user_planets", Inverse: "FavoritedBy"},
	}
}

type vPost struct {
	ID     int `po:"id,primaryKey,serial"`
	UserID int `po:"user_id,integer,notNull,fk(users.id),onDelete(cascade)"`
}

func (vPost) TableName() string { return "posts" }

func (vPost) Relations() []Relation {
	return []Relation{{Name: "Author", Type: BelongsTo, Target: "users", Inverse: "Posts"}}
}

type vPlanet struct {
	ID int `po:"id,primaryKey,serial"`
}

func (vPlanet) TableName() string { return "planets" }

func (vPlanet) Relations() []Relation {
	return []Relation{{Name: "FavoritedBy", Type: ManyToMany, Target: "users", JoinTable: "user_planets", Inverse: "FavoritePlanets"}}
}

// vPlanetTypo points its side of the favorites relation at a join table
// that differs from the one the user side declares.
type vPlanetTypo struct {
	ID int `po:"id,primaryKey,serial"`
}

func (vPlanetTypo) TableName() string { return "planets" }

func (vPlanetTypo) Relations() []Relation {
	return []Relation{{Name: "FavoritedBy", Type: ManyToMany, Target: "users", JoinTable: "user_planet", Inverse: "FavoritePlanets"}}
}

type vUserPlanet struct {
	UserID   int `po:"user_id,integer,primaryKey,fk(users.id),onDelete(cascade)"`
	PlanetID int `po:"planet_id,integer,primaryKey,fk(planets.id),onDelete(cascade)"`
}

func (vUserPlanet) TableName() string { return "user_planets" }

// vPostNoCascade keeps the FK but drops ON DELETE CASCADE.
type vPostNoCascade struct {
	ID     int `po:"id,primaryKey,serial"`
	UserID int `po:"user_id,integer,notNull,fk(users.id)"`
}

func (vPostNoCascade) TableName() string { return "posts" }

func (vPostNoCascade) Relations() []Relation {
	return []Relation{{Name: "Author", Type: BelongsTo, Target: "users", Inverse: "Posts"}}
}

type vOrphan struct {
	ID      int `po:"id,primaryKey,serial"`
	GhostID int `po:"ghost_id,integer,fk(ghosts.id)"`
}

func (vOrphan) TableName() string { return "orphans" }

type vNoKey struct {
	Name string `po:"name,text"`
}

func parseAll(t *testing.T, models ...any) map[string]*TableMetadata {
	t.Helper()
	parser := NewParser()
	tables := make(map[string]*TableMetadata)
	for _, m := range models {
		table, err := parser.Parse(reflect.TypeOf(m))
		if err != nil {
			t.Fatalf("Parse(%T) failed: %v", m, err)
		}
		tables[table.Name] = table
	}
	return tables
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		models  []any
		wantErr error
	}{
		{
			name:   "consistent schema",
			models: []any{vUser{}, vPost{}, vPlanet{}, vUserPlanet{}},
		},
		{
			name:    "inverse join tables disagree",
			models:  []any{vUser{}, vPost{}, vPlanetTypo{}, vUserPlanet{}},
			wantErr: ErrJoinTableMismatch,
		},
		{
			name:    "join table not registered",
			models:  []any{vUser{}, vPost{}, vPlanet{}},
			wantErr: ErrMissingTable,
		},
		{
			name:    "cascade without ON DELETE CASCADE",
			models:  []any{vUser{}, vPostNoCascade{}, vPlanet{}, vUserPlanet{}},
			wantErr: ErrCascadeWithoutConstraint,
		},
		{
			name:    "foreign key to unknown table",
			models:  []any{vOrphan{}},
			wantErr: ErrMissingTable,
		},
		{
			name:    "missing primary key",
			models:  []any{vNoKey{}},
			wantErr: ErrNoPrimaryKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(parseAll(t, tt.models...))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_MissingInverse(t *testing.T) {
	tables := parseAll(t, vUser{}, vPost{}, vPlanet{}, vUserPlanet{})
	tables["posts"].Relationships = nil

	if err := Validate(tables); !errors.Is(err, ErrInverseMismatch) {
		t.Fatalf("expected ErrInverseMismatch, got %v", err)
	}
}
