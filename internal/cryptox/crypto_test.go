package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealAndOpen(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	key := DeriveKey([]byte("hunter2"), salt)

	type payload struct {
		Token string `json:"token"`
	}
	ct, nonce, err := Seal(payload{Token: "ghp_secret"}, key)
	require.NoError(t, err)
	assert.NotEmpty(t, ct)
	assert.Len(t, nonce, nonceSize)

	var out payload
	require.NoError(t, Open(ct, nonce, key, &out))
	assert.Equal(t, "ghp_secret", out.Token)
}

func TestOpen_WrongKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	ct, nonce, err := Seal(map[string]string{"a": "b"}, DeriveKey([]byte("right"), salt))
	require.NoError(t, err)

	var out map[string]string
	err = Open(ct, nonce, DeriveKey([]byte("wrong"), salt), &out)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestDeriveKey_DeterministicPerSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)

	k1 := DeriveKey([]byte("pass"), salt1)
	k2 := DeriveKey([]byte("pass"), salt1)
	k3 := DeriveKey([]byte("pass"), salt2)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, keySize)
}

func TestMakeVerifier(t *testing.T) {
	v1 := MakeVerifier([]byte("key-a"))
	v2 := MakeVerifier([]byte("key-a"))
	v3 := MakeVerifier([]byte("key-b"))

	assert.Equal(t, v1, v2)
	assert.NotEqual(t, v1, v3)
}
