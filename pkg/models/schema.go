package models

import (
	"fmt"

	"github.com/marshallshelly/holonet/pkg/registry"
)

// All returns a zero value of every model, entities first, join tables last.
func All() []any {
	return []any{
		User{},
		Planet{},
		Character{},
		Post{},
		Comment{},
		UserPlanet{},
		UserCharacter{},
	}
}

// NewSchema builds a registry holding every HoloNet table and checks that
// the declarations agree with each other.
func NewSchema() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := reg.RegisterAll(All()...); err != nil {
		return nil, fmt.Errorf("register models: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return reg, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema() *registry.Registry {
	reg, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return reg
}
