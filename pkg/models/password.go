package models

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword     = errors.New("password must not be empty")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// HashPassword returns the bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SetPassword stores a bcrypt hash of plain in the user's Password field.
func (u *User) SetPassword(plain string) error {
	hash, err := HashPassword(plain)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u User) CheckPassword(plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)); err != nil {
		return ErrIncorrectPassword
	}
	return nil
}
