package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCodec(secret string, at time.Time) *TokenCodec {
	c := NewTokenCodec(secret, time.Hour)
	c.now = func() time.Time { return at }
	return c
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := fixedCodec("super-secret", start)

	for _, ttl := range []time.Duration{time.Second, time.Hour, 8 * 24 * time.Hour} {
		tok, err := c.Issue("3f1c0c56-5a55-4a4e-9a8e-6e6d8b2f1b11", ttl)
		require.NoError(t, err)
		assert.Equal(t, start.Add(ttl), tok.Exp)

		got, err := c.Decode(tok.Token)
		require.NoError(t, err)
		assert.Equal(t, "3f1c0c56-5a55-4a4e-9a8e-6e6d8b2f1b11", got.Subject)
		assert.True(t, got.ExpiresAt.Equal(tok.Exp))
	}
}

func TestTokenCodec_DefaultTTL(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := fixedCodec("k", start)

	tok, err := c.Issue("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), tok.Exp)
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := fixedCodec("k", start)
	tok, err := c.Issue("u1", time.Minute)
	require.NoError(t, err)

	c.now = func() time.Time { return start.Add(time.Minute - time.Second) }
	_, err = c.Decode(tok.Token)
	assert.NoError(t, err)

	c.now = func() time.Time { return start.Add(time.Minute + time.Second) }
	_, err = c.Decode(tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_FlippedSignature(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec("k", time.Hour)
	tok, err := c.Issue("u1", time.Hour)
	require.NoError(t, err)

	// Flip a character in the middle of the signature segment; the final
	// character can carry unused base64 bits.
	sig := strings.LastIndex(tok.Token, ".") + 5
	b := []byte(tok.Token)
	if b[sig] == 'A' {
		b[sig] = 'B'
	} else {
		b[sig] = 'A'
	}

	_, err = c.Decode(string(b))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenCodec("right", time.Hour).Issue("u1", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenCodec("wrong", time.Hour).Decode(tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: exp}).SignedString(secret)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"}).SignedString(secret)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: exp}).SignedString(secret)
	require.NoError(t, err)

	c := NewTokenCodec("k", time.Hour)
	for name, tok := range map[string]string{
		"missing subject": noSub,
		"missing expiry":  noExp,
		"other algorithm": hs512,
		"garbage":         "not-a-token",
		"empty":           "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(tok)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
