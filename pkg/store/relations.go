package store

import (
	"context"
	"fmt"

	"github.com/marshallshelly/holonet/pkg/builder"
	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/runtime"
)

// PostsByUser returns the posts written by a user, oldest first.
func (s *Store) PostsByUser(ctx context.Context, userID int) ([]models.Post, error) {
	posts, err := builder.Related[models.User, models.Post](s.db, models.User{ID: userID}, "Posts").
		OrderByAsc("id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("posts of user %d: %w", userID, err)
	}
	return posts, nil
}

// CommentsByUser returns the comments written by a user.
func (s *Store) CommentsByUser(ctx context.Context, userID int) ([]models.Comment, error) {
	comments, err := builder.Related[models.User, models.Comment](s.db, models.User{ID: userID}, "Comments").
		OrderByAsc("id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("comments of user %d: %w", userID, err)
	}
	return comments, nil
}

// CommentsByPost returns the comments on a post.
func (s *Store) CommentsByPost(ctx context.Context, postID int) ([]models.Comment, error) {
	comments, err := builder.Related[models.Post, models.Comment](s.db, models.Post{ID: postID}, "Comments").
		OrderByAsc("id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// Residents returns the characters whose home planet is planetID.
func (s *Store) Residents(ctx context.Context, planetID int) ([]models.Character, error) {
	characters, err := builder.Related[models.Planet, models.Character](s.db, models.Planet{ID: planetID}, "Residents").
		OrderByAsc("id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("residents of planet %d: %w", planetID, err)
	}
	return characters, nil
}

// HomePlanet returns the planet c belongs to.
func (s *Store) HomePlanet(ctx context.Context, c models.Character) (*models.Planet, error) {
	p, err := builder.Related[models.Character, models.Planet](s.db, c, "HomePlanet").First(ctx)
	if err != nil {
		return nil, fmt.Errorf("home planet of character %d: %w", c.ID, err)
	}
	return p, nil
}

// PostAuthor returns the user who wrote p.
func (s *Store) PostAuthor(ctx context.Context, p models.Post) (*models.User, error) {
	u, err := builder.Related[models.Post, models.User](s.db, p, "Author").First(ctx)
	if err != nil {
		return nil, fmt.Errorf("author of post %d: %w", p.ID, err)
	}
	return u, nil
}

// CommentAuthor returns the user who wrote c.
func (s *Store) CommentAuthor(ctx context.Context, c models.Comment) (*models.User, error) {
	u, err := builder.Related[models.Comment, models.User](s.db, c, "Author").First(ctx)
	if err != nil {
		return nil, fmt.Errorf("author of comment %d: %w", c.ID, err)
	}
	return u, nil
}

// CommentPost returns the post c replies to.
func (s *Store) CommentPost(ctx context.Context, c models.Comment) (*models.Post, error) {
	p, err := builder.Related[models.Comment, models.Post](s.db, c, "Post").First(ctx)
	if err != nil {
		return nil, fmt.Errorf("post of comment %d: %w", c.ID, err)
	}
	return p, nil
}

// AddFavoritePlanet records that userID favorited planetID. Adding the same
// pair twice fails with runtime.ErrDuplicateKey.
func (s *Store) AddFavoritePlanet(ctx context.Context, userID, planetID int) error {
	if err := builder.Link[models.User](ctx, s.db, "FavoritePlanets", userID, planetID); err != nil {
		return fmt.Errorf("favorite planet %d for user %d: %w", planetID, userID, err)
	}
	return nil
}

// RemoveFavoritePlanet deletes the pair, or returns runtime.ErrNotFound.
func (s *Store) RemoveFavoritePlanet(ctx context.Context, userID, planetID int) error {
	return s.unlink(ctx, "FavoritePlanets", userID, planetID)
}

// FavoritePlanets returns the planets userID favorited.
func (s *Store) FavoritePlanets(ctx context.Context, userID int) ([]models.Planet, error) {
	planets, err := builder.Related[models.User, models.Planet](s.db, models.User{ID: userID}, "FavoritePlanets").
		OrderByAsc("planets.id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("favorite planets of user %d: %w", userID, err)
	}
	return planets, nil
}

// FavoritePlanetIDs returns the ids of the planets userID favorited,
// ascending, read from the join table alone.
func (s *Store) FavoritePlanetIDs(ctx context.Context, userID int) ([]int, error) {
	ids, err := builder.LinkedIDs[models.User](ctx, s.db, "FavoritePlanets", userID)
	if err != nil {
		return nil, fmt.Errorf("favorite planet ids of user %d: %w", userID, err)
	}
	return ids, nil
}

// PlanetFans returns the users who favorited planetID.
func (s *Store) PlanetFans(ctx context.Context, planetID int) ([]models.User, error) {
	users, err := builder.Related[models.Planet, models.User](s.db, models.Planet{ID: planetID}, "FavoritedBy").
		OrderByAsc("users.id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fans of planet %d: %w", planetID, err)
	}
	return users, nil
}

// AddFavoriteCharacter records that userID favorited characterID.
func (s *Store) AddFavoriteCharacter(ctx context.Context, userID, characterID int) error {
	if err := builder.Link[models.User](ctx, s.db, "FavoriteCharacters", userID, characterID); err != nil {
		return fmt.Errorf("favorite character %d for user %d: %w", characterID, userID, err)
	}
	return nil
}

// RemoveFavoriteCharacter deletes the pair, or returns runtime.ErrNotFound.
func (s *Store) RemoveFavoriteCharacter(ctx context.Context, userID, characterID int) error {
	return s.unlink(ctx, "FavoriteCharacters", userID, characterID)
}

// FavoriteCharacters returns the characters userID favorited.
func (s *Store) FavoriteCharacters(ctx context.Context, userID int) ([]models.Character, error) {
	characters, err := builder.Related[models.User, models.Character](s.db, models.User{ID: userID}, "FavoriteCharacters").
		OrderByAsc("characters.id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("favorite characters of user %d: %w", userID, err)
	}
	return characters, nil
}

// FavoriteCharacterIDs returns the ids of the characters userID favorited,
// ascending.
func (s *Store) FavoriteCharacterIDs(ctx context.Context, userID int) ([]int, error) {
	ids, err := builder.LinkedIDs[models.User](ctx, s.db, "FavoriteCharacters", userID)
	if err != nil {
		return nil, fmt.Errorf("favorite character ids of user %d: %w", userID, err)
	}
	return ids, nil
}

// CharacterFans returns the users who favorited characterID.
func (s *Store) CharacterFans(ctx context.Context, characterID int) ([]models.User, error) {
	users, err := builder.Related[models.Character, models.User](s.db, models.Character{ID: characterID}, "FavoritedBy").
		OrderByAsc("users.id").All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fans of character %d: %w", characterID, err)
	}
	return users, nil
}

func (s *Store) unlink(ctx context.Context, relation string, userID, targetID int) error {
	removed, err := builder.Unlink[models.User](ctx, s.db, relation, userID, targetID)
	if err != nil {
		return fmt.Errorf("unfavorite %d for user %d: %w", targetID, userID, err)
	}
	if !removed {
		return fmt.Errorf("unfavorite %d for user %d: %w", targetID, userID, runtime.ErrNotFound)
	}
	return nil
}
