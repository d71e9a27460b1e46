package builder

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/runtime"
)

func TestRelated_ToSQL(t *testing.T) {
	db := testDB(t)

	user := models.User{ID: 1}
	planet := models.Planet{ID: 3}
	character := models.Character{ID: 5, PlanetID: 3}
	post := models.Post{ID: 7, UserID: 1}

	tests := []struct {
		name     string
		query    Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "hasMany posts",
			query:    Related[models.User, models.Post](db, user, "Posts"),
			wantSQL:  "SELECT * FROM posts WHERE user_id = $1",
			wantArgs: []any{1},
		},
		{
			name:     "hasMany comments of a post",
			query:    Related[models.Post, models.Comment](db, post, "Comments").OrderByAsc("id"),
			wantSQL:  "SELECT * FROM comments WHERE post_id = $1 ORDER BY id ASC",
			wantArgs: []any{7},
		},
		{
			name:     "residents",
			query:    Related[models.Planet, models.Character](db, planet, "Residents"),
			wantSQL:  "SELECT * FROM characters WHERE planet_id = $1",
			wantArgs: []any{3},
		},
		{
			name:     "belongsTo home planet",
			query:    Related[models.Character, models.Planet](db, character, "HomePlanet"),
			wantSQL:  "SELECT * FROM planets WHERE id = $1",
			wantArgs: []any{3},
		},
		{
			name:     "belongsTo author",
			query:    Related[models.Post, models.User](db, post, "Author"),
			wantSQL:  "SELECT * FROM users WHERE id = $1",
			wantArgs: []any{1},
		},
		{
			name:     "manyToMany favorite planets",
			query:    Related[models.User, models.Planet](db, user, "FavoritePlanets"),
			wantSQL:  "SELECT planets.* FROM planets INNER JOIN user_planets ON user_planets.planet_id = planets.id WHERE user_planets.user_id = $1",
			wantArgs: []any{1},
		},
		{
			name:     "manyToMany fans of a planet",
			query:    Related[models.Planet, models.User](db, planet, "FavoritedBy"),
			wantSQL:  "SELECT users.* FROM users INNER JOIN user_planets ON user_planets.user_id = users.id WHERE user_planets.planet_id = $1",
			wantArgs: []any{3},
		},
		{
			name:     "manyToMany fans of a character",
			query:    Related[models.Character, models.User](db, character, "FavoritedBy"),
			wantSQL:  "SELECT users.* FROM users INNER JOIN user_characters ON user_characters.user_id = users.id WHERE user_characters.character_id = $1",
			wantArgs: []any{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query.ToSQL()
			if err != nil {
				t.Fatalf("ToSQL() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("sql = %v, want %v", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestRelated_Errors(t *testing.T) {
	db := testDB(t)

	if _, _, err := Related[models.User, models.Post](db, models.User{}, "Nope").ToSQL(); err == nil {
		t.Error("expected error for unknown relationship")
	}
	if _, _, err := Related[models.User, models.Planet](db, models.User{}, "Posts").ToSQL(); err == nil {
		t.Error("expected error for mismatched target")
	}
}

func TestJoinTableSQL(t *testing.T) {
	db := testDB(t)

	rel, err := manyToMany[models.User](db, "FavoriteCharacters")
	if err != nil {
		t.Fatalf("manyToMany failed: %v", err)
	}

	if got := linkSQL(rel); got != "INSERT INTO user_characters (user_id, character_id) VALUES ($1, $2)" {
		t.Errorf("unexpected link sql %s", got)
	}
	if got := unlinkSQL(rel); got != "DELETE FROM user_characters WHERE user_id = $1 AND character_id = $2" {
		t.Errorf("unexpected unlink sql %s", got)
	}
	if got := linkedIDsSQL(rel); got != "SELECT character_id FROM user_characters WHERE user_id = $1 ORDER BY character_id" {
		t.Errorf("unexpected linked ids sql %s", got)
	}

	planets, err := manyToMany[models.User](db, "FavoritePlanets")
	if err != nil {
		t.Fatalf("manyToMany failed: %v", err)
	}
	if got := linkedIDsSQL(planets); got != "SELECT planet_id FROM user_planets WHERE user_id = $1 ORDER BY planet_id" {
		t.Errorf("unexpected linked ids sql %s", got)
	}

	if _, err := manyToMany[models.User](db, "Posts"); err == nil {
		t.Error("expected error for non manyToMany relationship")
	}
}

func TestLink_NoExecutor(t *testing.T) {
	db := testDB(t)

	err := Link[models.User](context.Background(), db, "FavoritePlanets", 1, 2)
	if !errors.Is(err, runtime.ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
}

func TestLinkedIDs_NoExecutor(t *testing.T) {
	db := testDB(t)

	_, err := LinkedIDs[models.User](context.Background(), db, "FavoritePlanets", 1)
	if !errors.Is(err, runtime.ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
	if _, err := LinkedIDs[models.User](context.Background(), db, "Posts", 1); err == nil {
		t.Error("expected error for non manyToMany relationship")
	}
}
