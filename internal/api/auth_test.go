package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	secret := []byte("secret")

	token, err := GenerateToken("admin", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	login, err := LoginFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "admin", login)
}

func TestLoginFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("admin", []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = LoginFromToken(token, []byte("wrong"))
	assert.Error(t, err)
}

func TestLoginFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("admin", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = LoginFromToken(token, []byte("secret"))
	assert.Error(t, err)
}
