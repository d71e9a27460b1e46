package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/holonet/pkg/builder"
	"github.com/marshallshelly/holonet/pkg/models"
)

// UserFilter narrows SearchUsers. The zero value matches every user.
type UserFilter struct {
	// Text matches part of the email, first name or last name, ignoring
	// case.
	Text       string
	ActiveOnly bool
}

func (f UserFilter) conditions() []builder.Condition {
	var conds []builder.Condition
	if f.ActiveOnly {
		conds = append(conds, builder.Eq("is_active", true))
	}
	if f.Text != "" {
		pattern := containsPattern(f.Text)
		conds = append(conds, builder.Group(
			builder.ILike("email", pattern),
			builder.Or(builder.ILike("first_name", pattern)),
			builder.Or(builder.ILike("last_name", pattern)),
		))
	}
	return conds
}

// SearchUsers returns a page of the users matching f, ordered by id.
func (s *Store) SearchUsers(ctx context.Context, f UserFilter, opts ListOptions) ([]models.User, error) {
	users, err := list[models.User](ctx, s, opts, f.conditions()...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// SearchPlanets returns a page of the planets whose name, climate or terrain
// contains text, ignoring case.
func (s *Store) SearchPlanets(ctx context.Context, text string, opts ListOptions) ([]models.Planet, error) {
	planets, err := searchPlanetsQuery(s, text, opts).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("search planets %q: %w", text, err)
	}
	return planets, nil
}

func searchPlanetsQuery(s *Store, text string, opts ListOptions) *builder.SelectQuery[models.Planet] {
	pattern := containsPattern(text)
	q := builder.Select[models.Planet](s.db).
		Where(builder.ILike("name", pattern)).
		Or(builder.ILike("climate", pattern)).
		Or(builder.ILike("terrain", pattern))
	return paginate(q, opts)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns text into an ILIKE pattern matching it anywhere,
// with its own wildcards taken literally.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
