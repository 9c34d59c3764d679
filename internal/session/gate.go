// Package session gates the application behind a single shared security
// code and keeps the unlocked state in a signed cookie for a fixed window.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"oro/internal/core"
)

var ErrInvalidCode = errors.New("invalid security code")

// CodeSource returns the expected security code. The value is either plain
// digits or a bcrypt hash.
type CodeSource interface {
	SecurityCode(ctx context.Context) (string, error)
}

// Gate checks user input against the stored code. The code is fetched on
// every attempt so a change made with the admin tool applies immediately.
type Gate struct {
	codes CodeSource
}

func NewGate(codes CodeSource) *Gate {
	return &Gate{codes: codes}
}

// Check returns nil when input matches, ErrInvalidCode when it does not and
// a *core.PersistenceError when the stored code cannot be read.
func (g *Gate) Check(ctx context.Context, input string) error {
	code := Digits(input)
	if code == "" {
		return ErrInvalidCode
	}

	expected, err := g.codes.SecurityCode(ctx)
	if err != nil {
		return &core.PersistenceError{Op: "verify security code", Err: err}
	}

	if isHash(expected) {
		if err := bcrypt.CompareHashAndPassword([]byte(expected), []byte(code)); err != nil {
			return ErrInvalidCode
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(expected)), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

// HashCode returns the bcrypt hash stored by the admin tool.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func isHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
