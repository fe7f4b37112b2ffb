package agent

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalResolver_AccountIDInContext(t *testing.T) {
	r := NewPrincipalResolver("secret")
	ctx := WithAccountID(context.Background(), 42)

	p, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.AccountID)
}

func TestPrincipalResolver_FallsBackToToken(t *testing.T) {
	r := NewPrincipalResolver("secret")

	claims := jwtlib.RegisteredClaims{
		Subject: "7",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	ctx := WithToken(context.Background(), signed)
	p, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.AccountID)
}

func TestPrincipalResolver_NoCredentials(t *testing.T) {
	r := NewPrincipalResolver("secret")
	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
}

func TestPrincipalResolver_BadToken(t *testing.T) {
	r := NewPrincipalResolver("secret")
	ctx := WithToken(context.Background(), "not-a-jwt")
	_, err := r.Resolve(ctx)
	assert.Error(t, err)
}
