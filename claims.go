package gqlauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates credential variants. Access tokens are
// short-lived; refresh tokens mint new access tokens. Activation and
// password-reset tokens are single-use lifecycle credentials.
type TokenType string

const (
	TokenTypeAccess     TokenType = "access"
	TokenTypeRefresh    TokenType = "refresh"
	TokenTypeActivation TokenType = "activation"
	TokenTypeReset      TokenType = "password_reset"
)

// TokenClaims is the signed payload of every credential this package
// issues. The token carries only the user reference and its own expiry
// window; verification re-reads account state so the claims never cache
// verification or permission status.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	TokenKind TokenType `json:"typ,omitempty"`
}

// UserRef parses the user reference carried by the token.
func (c *TokenClaims) UserRef() (uuid.UUID, error) {
	if c.UID != "" {
		return uuid.Parse(c.UID)
	}
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// TokenID returns the jti used to key the revocation set.
func (c *TokenClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}

// tokenIDOf extracts the jti from a signed credential without verifying
// it. Used to correlate reset records with the token they were issued for.
func tokenIDOf(credential string) string {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return ""
	}
	return claims.TokenID()
}
