package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commutehq/corp-rides/internal/domain/user"
)

func TestTokenIssueAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	u := &user.User{ID: uuid.New(), Role: user.RoleAdmin}

	token, err := tm.Issue(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, user.RoleAdmin, claims.Role)
	assert.Equal(t, u.ID.String(), claims.Subject)
}

func TestTokenValidate_WrongSecret(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("different-secret", time.Hour)
	u := &user.User{ID: uuid.New(), Role: user.RoleEmployee}

	token, err := tm.Issue(u)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenValidate_Expired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)
	u := &user.User{ID: uuid.New(), Role: user.RoleEmployee}

	token, err := tm.Issue(u)
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestTokenValidate_Garbage(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	_, err := tm.Validate("not.a.token")
	assert.Error(t, err)
}
