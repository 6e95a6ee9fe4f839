// Package auth provides agent credential verification and JWT issuance
// for the agent console. Passwords are stored as bcrypt hashes; tokens are
// HMAC-signed (HS256) with a server-side secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned when a username/password pair does not
// match a stored agent. Callers must not distinguish unknown users from
// wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a presented token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims is the JWT payload for an authenticated agent.
type Claims struct {
	AgentID  string `json:"sub"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies agent tokens.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

// NewIssuer returns an Issuer with the default TTL applied.
func NewIssuer(secret string) *Issuer {
	return &Issuer{Secret: []byte(secret), TTL: DefaultTokenTTL}
}

// Issue signs a token for the agent identified by agentID/username.
func (i *Issuer) Issue(agentID, username string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AgentID:  agentID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

// Verify parses and validates a token, returning its claims. Expired,
// malformed, or wrongly-signed tokens yield ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (i *Issuer) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return DefaultTokenTTL
}
