// Package identity signs players in and out and tells listeners when the
// signed-in player changes.
package identity

import (
	"context"

	"github.com/okian/heartrobot/internal/domain/model"
)

// DefaultName is shown for a player with neither a name nor a usable email.
const DefaultName = "Heart Robot Player"

// Token is an opaque bearer credential.
type Token string

// ChangeKind classifies a Change.
type ChangeKind string

// Change kinds.
const (
	SignedIn  ChangeKind = "signed_in"
	SignedOut ChangeKind = "signed_out"
)

// Change is delivered to OnChange listeners.
type Change struct {
	Kind ChangeKind
	User model.User
}

// Provider authenticates players.
type Provider interface {
	Register(ctx context.Context, name, email, password string) (model.User, Token, error)
	Login(ctx context.Context, email, password string) (model.User, Token, error)
	Logout(ctx context.Context, token Token) error
	CurrentUser(ctx context.Context, token Token) (model.User, error)
	// OnChange registers fn and returns a function removing it.
	OnChange(fn func(Change)) func()
}
