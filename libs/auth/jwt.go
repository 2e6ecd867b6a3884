// Package auth verifies the bearer tokens minted by the hosted auth
// provider. Token issuance lives with the provider; Sign exists for local
// tooling and tests.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

type Claims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// EffectiveRole prefers the operator role granted in app metadata over the
// provider's generic session role.
func (c *Claims) EffectiveRole() string {
	if r := strings.TrimSpace(c.AppMetadata.Role); r != "" {
		return r
	}
	return strings.TrimSpace(c.Role)
}

type Verifier struct {
	Secret   []byte
	Audience string
	Leeway   time.Duration
}

func NewVerifier(secret, audience string) *Verifier {
	return &Verifier{Secret: []byte(secret), Audience: audience, Leeway: 30 * time.Second}
}

// Verify checks an HS256 signature plus exp/nbf and, when configured, aud.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if len(v.Secret) == 0 || token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.Leeway),
		jwt.WithExpirationRequired(),
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign mints an HS256 token for claims.
func Sign(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
