package gqlauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds token issuance options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetActivationTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
}

// UserStore is the account storage boundary the engine reads identity
// state through. Reads must reflect the latest committed state; nothing
// here is cached beyond a single directive evaluation.
type UserStore interface {
	GetUser(ctx context.Context, userRef uuid.UUID) (*User, error)
	GetAccountStatus(ctx context.Context, userRef uuid.UUID) (AccountStatus, error)
	SaveAccountStatus(ctx context.Context, userRef uuid.UUID, status AccountStatus) error
	GetPermissions(ctx context.Context, userRef uuid.UUID) (PermissionSet, error)
}

// SimpleConfig is a plain Config implementation with defaults suitable for
// development. Production deployments provide their own signing key.
type SimpleConfig struct {
	SigningKey         string
	Issuer             string
	Audience           []string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ActivationTokenTTL time.Duration
	ResetTokenTTL      time.Duration
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }
func (c SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	return durationOrDefault(c.AccessTokenTTL, 5*time.Minute)
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	return durationOrDefault(c.RefreshTokenTTL, 7*24*time.Hour)
}

func (c SimpleConfig) GetActivationTokenTTL() time.Duration {
	return durationOrDefault(c.ActivationTokenTTL, 24*time.Hour)
}

func (c SimpleConfig) GetResetTokenTTL() time.Duration {
	return durationOrDefault(c.ResetTokenTTL, time.Hour)
}

func durationOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GQLAUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GQLAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GQLAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GQLAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
