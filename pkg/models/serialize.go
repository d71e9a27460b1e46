package models

import "encoding/json"

// Serializer is implemented by every entity. Serialize returns the entity's
// API-facing fields: its own attributes and foreign-key scalars, never
// related rows.
type Serializer interface {
	Serialize() map[string]any
}

var (
	_ Serializer = User{}
	_ Serializer = Planet{}
	_ Serializer = Character{}
	_ Serializer = Post{}
	_ Serializer = Comment{}
)

// Serialize omits the password.
func (u User) Serialize() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"is_active":  u.IsActive,
		"first_name": nullable(u.FirstName),
		"last_name":  nullable(u.LastName),
	}
}

func (p Planet) Serialize() map[string]any {
	return map[string]any{
		"id":         p.ID,
		"name":       nullable(p.Name),
		"climate":    nullable(p.Climate),
		"terrain":    nullable(p.Terrain),
		"population": nullable(p.Population),
	}
}

func (c Character) Serialize() map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      nullable(c.Name),
		"gender":    nullable(c.Gender),
		"birth_day": nullable(c.BirthDay),
		"species":   nullable(c.Species),
		"height":    nullable(c.Height),
		"mass":      nullable(c.Mass),
		"planet_id": c.PlanetID,
	}
}

func (p Post) Serialize() map[string]any {
	return map[string]any{
		"id":      p.ID,
		"title":   p.Title,
		"content": p.Content,
		"user_id": p.UserID,
	}
}

func (c Comment) Serialize() map[string]any {
	return map[string]any{
		"id":      c.ID,
		"content": c.Content,
		"post_id": c.PostID,
		"user_id": c.UserID,
	}
}

// MarshalJSON encodes the serialized form.
func (u User) MarshalJSON() ([]byte, error) { return json.Marshal(u.Serialize()) }

// MarshalJSON encodes the serialized form.
func (p Planet) MarshalJSON() ([]byte, error) { return json.Marshal(p.Serialize()) }

// MarshalJSON encodes the serialized form.
func (c Character) MarshalJSON() ([]byte, error) { return json.Marshal(c.Serialize()) }

// MarshalJSON encodes the serialized form.
func (p Post) MarshalJSON() ([]byte, error) { return json.Marshal(p.Serialize()) }

// MarshalJSON encodes the serialized form.
func (c Comment) MarshalJSON() ([]byte, error) { return json.Marshal(c.Serialize()) }

// SerializeAll serializes a slice of entities.
func SerializeAll[T Serializer](items []T) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = item.Serialize()
	}
	return out
}

// nullable turns an unset optional string into an untyped nil so it encodes
// as null.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// String returns a pointer to s, for filling optional fields.
func String(s string) *string {
	return &s
}
