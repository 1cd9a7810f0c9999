// Package jwt emite y valida los access tokens (HS256) con los que se
// autentican las cuentas.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTTL vida por defecto de un access token.
const DefaultAccessTTL = 15 * time.Minute

// Issuer firma tokens con un secreto compartido.
type Issuer struct {
	Iss       string
	AccessTTL time.Duration
	secret    []byte
}

// NewIssuer crea un Issuer. ttl <= 0 => DefaultAccessTTL.
func NewIssuer(iss string, secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Issuer{Iss: iss, AccessTTL: ttl, secret: s}, nil
}

// Keyfunc retorna la clave de verificación.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(*jwtv5.Token) (any, error) { return i.secret, nil }
}

// IssueAccess emite un access token para sub con los roles indicados.
func (i *Issuer) IssueAccess(sub string, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": sub,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
