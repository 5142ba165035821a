// Package auth is the client side of the authentication collaborator: it
// exposes the current user id and an authenticated flag decoded from the
// bearer token the client was configured with. Token issuance belongs to the
// identity provider; the only issuer in this repo is the dev-token minter
// used by the mock gateway and tests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims shared with the gateway.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id,omitempty"`
	Scopes   []string `json:"scope,omitempty"`
}

// Session identifies the authenticated user for the lifetime of the client.
type Session struct {
	UserID   string
	TenantID string
	Token    string
}

// ErrNoToken is returned when a session is constructed without a token.
var ErrNoToken = errors.New("auth: no token provided")

// SessionFromToken decodes the claims of a bearer token without verifying
// its signature. Verification is the gateway's job; the client only needs
// the subject to key its durable state.
func SessionFromToken(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.New("auth: malformed token")
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}

	return &Session{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Token:    token,
	}, nil
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// MintDevToken signs a development token accepted by the mock gateway.
func MintDevToken(secret, userID, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: tenantID,
		Scopes:   []string{"chat"},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
