package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("clinicore", []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	require.NoError(t, err)

	tok, exp, err := iss.IssueAccess("acc-1", []string{"doctor", "platform_admin"})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims["sub"])
	assert.Equal(t, []string{"doctor", "platform_admin"}, Roles(claims))
}

func TestParse_Rejects(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	iss, _ := NewIssuer("clinicore", secret, time.Minute)

	other, _ := NewIssuer("clinicore", []byte("another-secret-another-secret-xx"), time.Minute)
	tok, _, _ := other.IssueAccess("acc-1", nil)
	_, err := iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss, _ := NewIssuer("someone-else", secret, time.Minute)
	tok, _, _ = wrongIss.IssueAccess("acc-1", nil)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidIssuer)

	expired := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss": "clinicore", "sub": "acc-1", "exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"iss": "clinicore"})
	raw, _ = noSub.SignedString(secret)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrMissingSub)

	_, err = iss.Parse("not-a-jwt")
	assert.Error(t, err)
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer("x", nil, 0)
	assert.Error(t, err)
}
