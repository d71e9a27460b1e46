package store

import (
	"context"
	"fmt"

	"github.com/marshallshelly/holonet/pkg/builder"
	"github.com/marshallshelly/holonet/pkg/models"
	"github.com/marshallshelly/holonet/pkg/runtime"
)

// CreateUser inserts u and fills in the generated id. u.Password holds the
// plain-text password and is always replaced by its bcrypt hash before the
// insert.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := u.SetPassword(u.Password); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if err := create(ctx, s, u); err != nil {
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}
	s.logger.Debug("user created", "id", u.ID)
	return nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := get[models.User](ctx, s, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail returns the user registered with email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := builder.Select[models.User](s.db).
		Where(builder.Eq(builder.Col[models.User](s.db, "Email"), email)).
		First(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of users ordered by id.
func (s *Store) ListUsers(ctx context.Context, opts ListOptions) ([]models.User, error) {
	users, err := list[models.User](ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser writes every column of u. The password column is written as
// is, so u.Password must still hold the stored hash; use ChangePassword to
// set a new password.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	if err := update(ctx, s, u); err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

// ChangePassword hashes plain and stores it as the password of user id.
func (s *Store) ChangePassword(ctx context.Context, id int, plain string) error {
	hash, err := models.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("change password of user %d: %w", id, err)
	}
	n, err := builder.Update[models.User](s.db).
		Set("password", hash).
		Where(builder.Eq("id", id)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("change password of user %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("change password of user %d: %w", id, runtime.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user together with their posts, comments and
// favorites.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	if err := remove[models.User](ctx, s, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.logger.Debug("user deleted", "id", id)
	return nil
}

// CreatePlanet inserts p and fills in the generated id.
func (s *Store) CreatePlanet(ctx context.Context, p *models.Planet) error {
	if err := create(ctx, s, p); err != nil {
		return fmt.Errorf("create planet: %w", err)
	}
	s.logger.Debug("planet created", "id", p.ID)
	return nil
}

// GetPlanet returns the planet with the given id.
func (s *Store) GetPlanet(ctx context.Context, id int) (*models.Planet, error) {
	p, err := get[models.Planet](ctx, s, id)
	if err != nil {
		return nil, fmt.Errorf("get planet %d: %w", id, err)
	}
	return p, nil
}

// ListPlanets returns a page of planets ordered by id.
func (s *Store) ListPlanets(ctx context.Context, opts ListOptions) ([]models.Planet, error) {
	planets, err := list[models.Planet](ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("list planets: %w", err)
	}
	return planets, nil
}

// UpdatePlanet writes every column of p.
func (s *Store) UpdatePlanet(ctx context.Context, p *models.Planet) error {
	if err := update(ctx, s, p); err != nil {
		return fmt.Errorf("update planet %d: %w", p.ID, err)
	}
	return nil
}

// DeletePlanet removes a planet and, by cascade, its residents.
func (s *Store) DeletePlanet(ctx context.Context, id int) error {
	if err := remove[models.Planet](ctx, s, id); err != nil {
		return fmt.Errorf("delete planet %d: %w", id, err)
	}
	s.logger.Debug("planet deleted", "id", id)
	return nil
}

// CreateCharacter inserts c. Its PlanetID must reference an existing planet.
func (s *Store) CreateCharacter(ctx context.Context, c *models.Character) error {
	if err := create(ctx, s, c); err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	s.logger.Debug("character created", "id", c.ID, "planet_id", c.PlanetID)
	return nil
}

// GetCharacter returns the character with the given id.
func (s *Store) GetCharacter(ctx context.Context, id int) (*models.Character, error) {
	c, err := get[models.Character](ctx, s, id)
	if err != nil {
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}
	return c, nil
}

// ListCharacters returns a page of characters ordered by id.
func (s *Store) ListCharacters(ctx context.Context, opts ListOptions) ([]models.Character, error) {
	characters, err := list[models.Character](ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

// UpdateCharacter writes every column of c.
func (s *Store) UpdateCharacter(ctx context.Context, c *models.Character) error {
	if err := update(ctx, s, c); err != nil {
		return fmt.Errorf("update character %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCharacter removes a character and the favorites pointing at it.
func (s *Store) DeleteCharacter(ctx context.Context, id int) error {
	if err := remove[models.Character](ctx, s, id); err != nil {
		return fmt.Errorf("delete character %d: %w", id, err)
	}
	s.logger.Debug("character deleted", "id", id)
	return nil
}

// CreatePost inserts p. Its UserID must reference an existing user.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if err := create(ctx, s, p); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	s.logger.Debug("post created", "id", p.ID, "user_id", p.UserID)
	return nil
}

// GetPost returns the post with the given id.
func (s *Store) GetPost(ctx context.Context, id int) (*models.Post, error) {
	p, err := get[models.Post](ctx, s, id)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// ListPosts returns a page of posts ordered by id.
func (s *Store) ListPosts(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	posts, err := list[models.Post](ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost writes every column of p.
func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	if err := update(ctx, s, p); err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	return nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(ctx context.Context, id int) error {
	if err := remove[models.Post](ctx, s, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	s.logger.Debug("post deleted", "id", id)
	return nil
}

// CreateComment inserts c. Both PostID and UserID must reference existing
// rows.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := create(ctx, s, c); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	s.logger.Debug("comment created", "id", c.ID, "post_id", c.PostID, "user_id", c.UserID)
	return nil
}

// GetComment returns the comment with the given id.
func (s *Store) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	c, err := get[models.Comment](ctx, s, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

// UpdateComment writes every column of c.
func (s *Store) UpdateComment(ctx context.Context, c *models.Comment) error {
	if err := update(ctx, s, c); err != nil {
		return fmt.Errorf("update comment %d: %w", c.ID, err)
	}
	return nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id int) error {
	if err := remove[models.Comment](ctx, s, id); err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	s.logger.Debug("comment deleted", "id", id)
	return nil
}
