// Package identity describes who is acting on a request: a registered user or
// an anonymous browser session.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindUser
	KindAnonymous
)

// Owner kinds as persisted in owner_kind columns.
const (
	OwnerUser    = "user"
	OwnerSession = "session"
)

const RoleAdmin = "admin"

var ErrInvalidOwner = errors.New("invalid owner")

// Identity is either User(id) or Anonymous(token), never both.
type Identity struct {
	kind   Kind
	userID uint
	token  string
}

func User(id uint) Identity {
	return Identity{kind: KindUser, userID: id}
}

func Anonymous(token string) Identity {
	return Identity{kind: KindAnonymous, token: token}
}

func (i Identity) Kind() Kind { return i.kind }

func (i Identity) IsZero() bool { return i.kind == KindNone }

func (i Identity) IsUser() bool { return i.kind == KindUser }

func (i Identity) UserID() (uint, bool) {
	return i.userID, i.kind == KindUser
}

func (i Identity) SessionToken() (string, bool) {
	return i.token, i.kind == KindAnonymous
}

func (i Identity) OwnerKind() string {
	switch i.kind {
	case KindUser:
		return OwnerUser
	case KindAnonymous:
		return OwnerSession
	}
	return ""
}

func (i Identity) OwnerKey() string {
	switch i.kind {
	case KindUser:
		return strconv.FormatUint(uint64(i.userID), 10)
	case KindAnonymous:
		return i.token
	}
	return ""
}

func (i Identity) String() string {
	if i.kind == KindNone {
		return "none"
	}
	return i.OwnerKind() + ":" + i.OwnerKey()
}

// FromOwner rebuilds an Identity from its stored owner columns.
func FromOwner(kind, key string) (Identity, error) {
	switch kind {
	case OwnerUser:
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			return Identity{}, fmt.Errorf("%w: user key %q", ErrInvalidOwner, key)
		}
		return User(uint(id)), nil
	case OwnerSession:
		if key == "" {
			return Identity{}, fmt.Errorf("%w: empty session key", ErrInvalidOwner)
		}
		return Anonymous(key), nil
	}
	return Identity{}, fmt.Errorf("%w: kind %q", ErrInvalidOwner, kind)
}

// Caller is the identity resolved for one request.
type Caller struct {
	Identity Identity
	// Session is the anonymous session token carried by the request. It stays
	// set after login so the session cart can be merged into the user cart.
	Session string
	Role    string
	Name    string
}

func (c Caller) IsStaff() bool {
	return c.Identity.IsUser() && c.Role == RoleAdmin
}

// Owns reports whether the stored owner columns belong to the caller.
func (c Caller) Owns(kind, key string) bool {
	return !c.Identity.IsZero() && c.Identity.OwnerKind() == kind && c.Identity.OwnerKey() == key
}

type ctxKey struct{}

func IntoContext(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
