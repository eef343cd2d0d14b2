// Package caller carries the identity of the application invoking the
// notification service through a context.Context.
package caller

import (
	"context"

	"github.com/colonyops/ans/internal/core/anserr"
)

type contextKey struct{}

// DefaultUserID is the user id used when a caller does not specify one.
const DefaultUserID int32 = 100

// Identity describes the calling application.
type Identity struct {
	Bundle string `json:"bundle"`
	UID    int32  `json:"uid"`
	UserID int32  `json:"userId"`
	System bool   `json:"system"`
}

// With returns a context carrying the identity.
func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// From returns the identity stored in ctx, if any.
func From(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Require returns the caller identity or ERR_ANS_INVALID_BUNDLE when the
// context has none or the bundle is empty.
func Require(ctx context.Context) (Identity, error) {
	id, ok := From(ctx)
	if !ok || id.Bundle == "" {
		return Identity{}, anserr.ErrInvalidBundle
	}
	return id, nil
}

// RequireSystem is Require plus a system-privilege check.
func RequireSystem(ctx context.Context) (Identity, error) {
	id, err := Require(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !id.System {
		return Identity{}, anserr.ErrNonSystemApp
	}
	return id, nil
}
