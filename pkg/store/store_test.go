package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/runtime"
)

func offlineStore(t *testing.T) *Store {
	t.Helper()
	reg, err := models.NewSchema()
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return New(nil, reg)
}

func TestStore_NoConnection(t *testing.T) {
	s := offlineStore(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"GetUser":           func() error { _, err := s.GetUser(ctx, 1); return err },
		"ListPlanets":       func() error { _, err := s.ListPlanets(ctx, ListOptions{}); return err },
		"DeletePost":        func() error { return s.DeletePost(ctx, 1) },
		"Residents":         func() error { _, err := s.Residents(ctx, 1); return err },
		"FavoritePlanets":   func() error { _, err := s.FavoritePlanets(ctx, 1); return err },
		"FavoritePlanetIDs": func() error { _, err := s.FavoritePlanetIDs(ctx, 1); return err },
		"FavoriteCharIDs":   func() error { _, err := s.FavoriteCharacterIDs(ctx, 1); return err },
		"AddFavorite":       func() error { return s.AddFavoriteCharacter(ctx, 1, 2) },
		"RemoveFavorite":    func() error { return s.RemoveFavoritePlanet(ctx, 1, 2) },
		"CreatePlanet":      func() error { return s.CreatePlanet(ctx, &models.Planet{}) },
		"ChangePassword":    func() error { return s.ChangePassword(ctx, 1, "new") },
		"SearchUsers":       func() error { _, err := s.SearchUsers(ctx, UserFilter{Text: "a"}, ListOptions{}); return err },
		"SearchPlanets":     func() error { _, err := s.SearchPlanets(ctx, "arid", ListOptions{}); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, runtime.ErrNoConnection) {
			t.Errorf("%s error = %v, want ErrNoConnection", name, err)
		}
	}
}

func TestStore_CreateUserHashesPassword(t *testing.T) {
	s := offlineStore(t)

	tests := []struct {
		name     string
		password string
	}{
		{name: "plain text", password: "hunter2"},
		{name: "plain text shaped like a bcrypt hash", password: "$2a$10$abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{Email: "a@x.com", Password: tt.password}
			err := s.CreateUser(context.Background(), u)
			if !errors.Is(err, runtime.ErrNoConnection) {
				t.Fatalf("CreateUser error = %v, want ErrNoConnection", err)
			}
			if u.Password == tt.password {
				t.Fatalf("password was stored as given: %q", u.Password)
			}
			if err := u.CheckPassword(tt.password); err != nil {
				t.Errorf("CheckPassword: %v", err)
			}
		})
	}
}

func TestStore_ChangePasswordEmpty(t *testing.T) {
	s := offlineStore(t)

	err := s.ChangePassword(context.Background(), 1, "")
	if !errors.Is(err, models.ErrEmptyPassword) {
		t.Errorf("ChangePassword error = %v, want ErrEmptyPassword", err)
	}
}

func TestStore_CreateUserEmptyPassword(t *testing.T) {
	s := offlineStore(t)

	err := s.CreateUser(context.Background(), &models.User{Email: "a@x.com"})
	if !errors.Is(err, models.ErrEmptyPassword) {
		t.Errorf("CreateUser error = %v, want ErrEmptyPassword", err)
	}
}

func TestStore_WithTxWithoutConnection(t *testing.T) {
	s := offlineStore(t)

	called := false
	err := s.WithTx(context.Background(), func(tx *Store) error {
		called = true
		if tx != s {
			t.Error("without a connection the store itself is passed through")
		}
		return nil
	})
	if err != nil || !called {
		t.Errorf("WithTx() = %v, called = %v", err, called)
	}
}

func TestUserFilter_SQL(t *testing.T) {
	s := offlineStore(t)

	tests := []struct {
		name     string
		filter   UserFilter
		opts     ListOptions
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			wantSQL: "SELECT * FROM users ORDER BY id ASC",
		},
		{
			name:     "active only",
			filter:   UserFilter{ActiveOnly: true},
			opts:     ListOptions{Limit: 10, Offset: 20},
			wantSQL:  "SELECT * FROM users WHERE is_active = $1 ORDER BY id ASC LIMIT 10 OFFSET 20",
			wantArgs: []any{true},
		},
		{
			name:     "text is grouped after active",
			filter:   UserFilter{Text: "sky", ActiveOnly: true},
			wantSQL:  "SELECT * FROM users WHERE is_active = $1 AND (email ILIKE $2 OR first_name ILIKE $3 OR last_name ILIKE $4) ORDER BY id ASC",
			wantArgs: []any{true, "%sky%", "%sky%", "%sky%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := listQuery[models.User](s, tt.opts, tt.filter.conditions()...).ToSQL()
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

func TestSearchPlanets_SQL(t *testing.T) {
	s := offlineStore(t)

	sql, args, err := searchPlanetsQuery(s, "50%_off", ListOptions{Limit: 5}).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}
	want := "SELECT * FROM planets WHERE name ILIKE $1 OR climate ILIKE $2 OR terrain ILIKE $3 ORDER BY id ASC LIMIT 5"
	if sql != want {
		t.Errorf("sql = %v, want %v", sql, want)
	}
	pattern := `%50\%\_off%`
	if !reflect.DeepEqual(args, []any{pattern, pattern, pattern}) {
		t.Errorf("args = %v, want the escaped pattern %s three times", args, pattern)
	}
}
