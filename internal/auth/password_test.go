package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	for _, p := range []string{"secret123", "", "pässwörd", "a very long passphrase with spaces"} {
		h, err := HashPassword(p, bcrypt.MinCost)
		require.NoError(t, err)
		assert.True(t, ComparePassword(h, p), p)
		assert.False(t, ComparePassword(h, p+"x"), p)
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPasswordClampsCost(t *testing.T) {
	h, err := HashPassword("secret123", 1)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestComparePasswordEmptyHash(t *testing.T) {
	assert.False(t, ComparePassword("", ""))
	assert.False(t, ComparePassword("", "secret123"))
}

func TestHashResetTokenDeterministic(t *testing.T) {
	a := HashResetToken("abc")
	assert.Equal(t, a, HashResetToken("abc"))
	assert.NotEqual(t, a, HashResetToken("abd"))
	assert.Len(t, a, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", a)
}
