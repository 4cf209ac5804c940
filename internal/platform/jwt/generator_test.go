package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerator_GenerateToken は生成されたトークンが正しいクレームを含むことを検証します。
func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	gen := NewGenerator("test-secret", time.Hour)
	gen.now = func() time.Time { return issued }

	tokenStr, err := gen.GenerateToken("ingest")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return issued.Add(time.Minute) }))
	require.NoError(t, err)

	assert.Equal(t, "ingest", claims.Subject)
	assert.Equal(t, issued, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issued.Add(time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestGenerator_ExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("test-secret", -time.Minute)
	tokenStr, err := gen.GenerateToken("old")
	require.NoError(t, err)

	_, err = jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
