package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Variants(t *testing.T) {
	u := User(7)
	id, ok := u.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
	_, ok = u.SessionToken()
	assert.False(t, ok)
	assert.Equal(t, "user", u.OwnerKind())
	assert.Equal(t, "7", u.OwnerKey())

	a := Anonymous("tok")
	tok, ok := a.SessionToken()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
	_, ok = a.UserID()
	assert.False(t, ok)
	assert.Equal(t, "session:tok", a.String())

	assert.True(t, Identity{}.IsZero())
}

func TestFromOwner(t *testing.T) {
	got, err := FromOwner("user", "12")
	require.NoError(t, err)
	assert.Equal(t, User(12), got)

	got, err = FromOwner("session", "abc")
	require.NoError(t, err)
	assert.Equal(t, Anonymous("abc"), got)

	for _, bad := range [][2]string{{"user", "x"}, {"user", "0"}, {"session", ""}, {"robot", "1"}} {
		_, err := FromOwner(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidOwner, bad)
	}
}

func TestCaller(t *testing.T) {
	staff := Caller{Identity: User(1), Role: RoleAdmin}
	assert.True(t, staff.IsStaff())
	assert.False(t, Caller{Identity: Anonymous("t"), Role: RoleAdmin}.IsStaff())
	assert.True(t, staff.Owns("user", "1"))
	assert.False(t, staff.Owns("session", "1"))

	ctx := IntoContext(context.Background(), staff)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, staff, got)
}
