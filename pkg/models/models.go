// Package models defines the HoloNet entities and their join tables.
//
// Models carry column declarations in `po` struct tags and declare their
// relationships through Relations; they never hold related rows. Related
// data is fetched through the store's query helpers.
package models

import "github.com/marshallshelly/holonet/pkg/schema"

// User is a blog member.
type User struct {
	ID        int     `po:"id,primaryKey,serial"`
	Email     string  `po:"email,varchar(120),unique,notNull"`
	Password  string  `po:"password,text,notNull"`
	IsActive  bool    `po:"is_active,boolean,notNull"`
	FirstName *string `po:"first_name,varchar(100)"`
	LastName  *string `po:"last_name,varchar(120)"`
}

func (User) TableName() string { return "users" }

func (User) Relations() []schema.Relation {
	return []schema.Relation{
		{Name: "Posts", Type: schema.HasMany, Target: "posts", Cascade: true, Inverse: "Author"},
		{Name: "Comments", Type: schema.HasMany, Target: "comments", Cascade: true, Inverse: "Author"},
		{Name: "FavoritePlanets", Type: schema.ManyToMany, Target: "planets", JoinTable: "user_planets", Inverse: "FavoritedBy"},
		{Name: "FavoriteCharacters", Type: schema.ManyToMany, Target: "characters", JoinTable: "user_characters", Inverse: "FavoritedBy"},
	}
}

// Planet is a world characters can call home.
type Planet struct {
	ID         int     `po:"id,primaryKey,serial"`
	Name       *string `po:"name,varchar(100)"`
	Climate    *string `po:"climate,varchar(100)"`
	Terrain    *string `po:"terrain,varchar(100)"`
	Population *string `po:"population,varchar(100)"`
}

func (Planet) TableName() string { return "planets" }

func (Planet) Relations() []schema.Relation {
	return []schema.Relation{
		{Name: "Residents", Type: schema.HasMany, Target: "characters", Cascade: true, Inverse: "HomePlanet"},
		{Name: "FavoritedBy", Type: schema.ManyToMany, Target: "users", JoinTable: "user_planets", Inverse: "FavoritePlanets"},
	}
}

// Character lives on exactly one planet.
type Character struct {
	ID       int     `po:"id,primaryKey,serial"`
	Name     *string `po:"name,varchar(100)"`
	Gender   *string `po:"gender,varchar(30)"`
	BirthDay *string `po:"birth_day,varchar(50)"`
	Species  *string `po:"species,varchar(50)"`
	Height   *string `po:"height,varchar(30)"`
	Mass     *string `po:"mass,varchar(30)"`
	PlanetID int     `po:"planet_id,integer,notNull,fk(planets.id),onDelete(cascade)"`
}

func (Character) TableName() string { return "characters" }

func (Character) Relations() []schema.Relation {
	return []schema.Relation{
		{Name: "HomePlanet", Type: schema.BelongsTo, Target: "planets", Inverse: "Residents"},
		{Name: "FavoritedBy", Type: schema.ManyToMany, Target: "users", JoinTable: "user_characters", Inverse: "FavoriteCharacters"},
	}
}

// Post is an article written by a user.
type Post struct {
	ID      int    `po:"id,primaryKey,serial"`
	Title   string `po:"title,varchar(200),notNull"`
	Content string `po:"content,text,notNull"`
	UserID  int    `po:"user_id,integer,notNull,fk(users.id),onDelete(cascade)"`
}

func (Post) TableName() string { return "posts" }

func (Post) Relations() []schema.Relation {
	return []schema.Relation{
		{Name: "Author", Type: schema.BelongsTo, Target: "users", Inverse: "Posts"},
		{Name: "Comments", Type: schema.HasMany, Target: "comments", Cascade: true, Inverse: "Post"},
	}
}

// Comment is a reply to a post.
type Comment struct {
	ID      int    `po:"id,primaryKey,serial"`
	Content string `po:"content,text,notNull"`
	PostID  int    `po:"post_id,integer,notNull,fk(posts.id),onDelete(cascade)"`
	UserID  int    `po:"user_id,integer,notNull,fk(users.id),onDelete(cascade)"`
}

func (Comment) TableName() string { return "comments" }

func (Comment) Relations() []schema.Relation {
	return []schema.Relation{
		{Name: "Post", Type: schema.BelongsTo, Target: "posts", Inverse: "Comments"},
		{Name: "Author", Type: schema.BelongsTo, Target: "users", ForeignKey: "user_id", Inverse: "Comments"},
	}
}

// UserPlanet records that a user favorited a planet.
type UserPlanet struct {
	UserID   int `po:"user_id,integer,primaryKey,fk(users.id),onDelete(cascade)"`
	PlanetID int `po:"planet_id,integer,primaryKey,fk(planets.id),onDelete(cascade)"`
}

func (UserPlanet) TableName() string { return "user_planets" }

// UserCharacter records that a user favorited a character.
type UserCharacter struct {
	UserID      int `po:"user_id,integer,primaryKey,fk(users.id),onDelete(cascade)"`
	CharacterID int `po:"character_id,integer,primaryKey,fk(characters.id),onDelete(cascade)"`
}

func (UserCharacter) TableName() string { return "user_characters" }
