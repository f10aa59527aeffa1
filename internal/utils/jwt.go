package utils

import (
	"errors" // errors classifies parser failures
	"time"   // time computes expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

var (
	// ErrTokenInvalid covers a bad signature, a malformed token, an
	// unexpected algorithm and a missing subject.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned once the expiry instant has passed.
	ErrTokenExpired = errors.New("token expired")
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims is what Decode extracts from a verified token.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256 JWTs whose only claims are the
// subject (sub) and the absolute expiry (exp).  No leeway is applied when
// checking exp.
type TokenCodec struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec returns a codec signing with secret.  defaultTTL is used by
// Issue when the caller passes a non-positive ttl.
func NewTokenCodec(secret string, defaultTTL time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}
}

// Issue signs a token for subject valid for ttl (or the default lifetime).
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (AccessToken, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	// exp is carried with second precision, so truncate to keep Exp equal to
	// what a later Decode will report.
	exp := c.now().UTC().Add(ttl).Truncate(time.Second)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Decode verifies signature and expiry and returns the embedded claims.
func (c *TokenCodec) Decode(token string) (TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenClaims{}, ErrTokenExpired
	case err != nil:
		return TokenClaims{}, ErrTokenInvalid
	case claims.Subject == "":
		return TokenClaims{}, ErrTokenInvalid
	}
	return TokenClaims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time.UTC()}, nil
}
