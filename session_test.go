package authpage_test

import (
	"testing"
	"time"

	authpage "github.com/goliatone/go-authpage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObject_Getters(t *testing.T) {
	id := uuid.New()
	issuedAt := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	session := &authpage.SessionObject{
		UserID:   id.String(),
		Audience: []string{"notes"},
		Issuer:   "go-authpage",
		IssuedAt: &issuedAt,
		Data:     map[string]any{"username": "jo"},
	}

	assert.Equal(t, id.String(), session.GetUserID())
	assert.Equal(t, []string{"notes"}, session.GetAudience())
	assert.Equal(t, "go-authpage", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())
	assert.Equal(t, "jo", session.Username())
}

func TestSessionObject_UsernameWithoutData(t *testing.T) {
	session := &authpage.SessionObject{UserID: "not-a-uuid"}
	assert.Empty(t, session.Username())

	session.Data = map[string]any{"username": 42}
	assert.Empty(t, session.Username())
}

func TestAuther_SessionFromToken(t *testing.T) {
	cfg := newTestConfig()
	auther := authpage.NewAuthenticator(new(MockUsers), cfg)

	identity := &MockIdentity{}
	identity.On("ID").Return("7d1f7c6a-1d7b-4f55-9a0e-7e57c0ffee00")
	identity.On("Username").Return("jo")

	token, err := auther.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, "7d1f7c6a-1d7b-4f55-9a0e-7e57c0ffee00", session.GetUserID())
	assert.Equal(t, cfg.issuer, session.GetIssuer())
	assert.Equal(t, cfg.audience, session.GetAudience())
	assert.NotNil(t, session.GetIssuedAt())
	assert.Equal(t, "jo", session.GetData()["username"])

	_, err = auther.SessionFromToken("garbage")
	assert.ErrorIs(t, err, authpage.ErrTokenMalformed)
}

func TestAuther_SessionFromTokenWithoutName(t *testing.T) {
	auther := authpage.NewAuthenticator(new(MockUsers), newTestConfig())

	identity := &MockIdentity{}
	identity.On("ID").Return("user-1")
	identity.On("Username").Return("")

	token, err := auther.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	so, ok := session.(*authpage.SessionObject)
	require.True(t, ok)
	assert.Empty(t, so.Username())
	require.NotNil(t, so.ExpirationDate)
	assert.True(t, so.ExpirationDate.After(*so.IssuedAt))
}
