package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/fandom-backend/internal/config"
)

const secret = "0123456789abcdef0123"

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, err = BearerToken("  bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, "header %q", h)
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier(config.AuthConfig{JWTSecret: secret, Issuer: "idp", Audience: "fandom"})
	tok, err := v.Sign("auth|42", time.Hour)
	require.NoError(t, err)

	sub, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "auth|42", sub)
}

func TestVerify_Failures(t *testing.T) {
	v := NewVerifier(config.AuthConfig{JWTSecret: secret})

	expired, err := v.Sign("auth|1", -time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewVerifier(config.AuthConfig{JWTSecret: "another-secret-of-16+"})
	forged, _ := other.Sign("auth|1", time.Hour)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	_, err = v.Verify(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "auth|1"}).SignedString([]byte(secret))
	_, err = v.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken, "only HS256 is accepted")
}

func TestVerify_IssuerAndAudienceEnforced(t *testing.T) {
	strict := NewVerifier(config.AuthConfig{JWTSecret: secret, Issuer: "idp", Audience: "fandom"})
	loose := NewVerifier(config.AuthConfig{JWTSecret: secret})

	tok, _ := loose.Sign("auth|1", time.Hour)
	_, err := strict.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, _ = strict.Sign("auth|1", time.Hour)
	sub, err := loose.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "auth|1", sub)
}
