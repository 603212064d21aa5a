// Package jwt issues and verifies the RSA-signed access tokens
// principals present on every authenticated request. Refresh tokens
// are a separate, opaque concept handled by internal/domains/auth.
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by an access token. Subject is the
// principal's username rather than a surrogate ID, matching how the
// rest of the system (rate limiting, ownership checks) identifies a
// caller.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Manager signs access tokens with an RSA private key and verifies
// them with the matching public key.
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	accessTTL  time.Duration
}

func NewManager(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, accessTTL time.Duration) *Manager {
	return &Manager{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
	}
}

// GenerateAccessToken issues a short-lived RS256 token for a
// principal identified by username, carrying their normalized roles.
func (m *Manager) GenerateAccessToken(username string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.privateKey)
}

// ValidateAccessToken parses and verifies an access token, rejecting
// anything not signed with RS256 by our own key.
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
