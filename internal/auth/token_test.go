package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	tm := NewTokenManager("super-secret", time.Hour)

	tok, exp, err := tm.Mint("acc-123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	got, err := tm.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", got.SubjectID)
	assert.WithinDuration(t, time.Now(), got.IssuedAt, 2*time.Second)
	assert.Equal(t, exp.Unix(), got.ExpiresAt.Unix())
}

func TestDefaultLifetime(t *testing.T) {
	tm := NewTokenManager("s", 0)
	assert.Equal(t, 90*24*time.Hour, tm.TTL())
}

func TestVerifyExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := tm.Mint("u1")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, _, err := NewTokenManager("right-secret", time.Hour).Mint("u2")
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		AccountID: "u3",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestVerifyMalformed(t *testing.T) {
	tm := NewTokenManager("k", time.Hour)
	for _, raw := range []string{"", "not.a.jwt", "loggedout", "null"} {
		_, err := tm.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, raw)
	}
}

func TestVerifyRequiresSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
