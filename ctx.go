package gqlauth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var identityCtxKey = &contextKey{"identity"}
var credentialCtxKey = &contextKey{"credential"}
var credentialErrCtxKey = &contextKey{"credential-error"}

type contextKey struct {
	name string
}

// Credential describes a verified token presented with the current request.
type Credential struct {
	TokenID   string
	UserRef   uuid.UUID
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// WithIdentity sets the resolved Identity in the given context
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(Identity)
	return identity, ok
}

// CurrentIdentity returns the request identity, anonymous when none was set.
func CurrentIdentity(ctx context.Context) Identity {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity
	}
	return AnonymousIdentity()
}

// WithCredential records the verified request credential in the context.
// TokenRequired uses its presence to gate entry into authenticated scopes.
func WithCredential(ctx context.Context, credential *Credential) context.Context {
	return context.WithValue(ctx, credentialCtxKey, credential)
}

// CredentialFromContext returns the verified credential for the request.
func CredentialFromContext(ctx context.Context) (*Credential, bool) {
	credential, ok := ctx.Value(credentialCtxKey).(*Credential)
	if !ok || credential == nil {
		return nil, false
	}
	return credential, true
}

// WithCredentialError records why a presented credential failed verification
// so credential-gated fields can report EXPIRED or REVOKED instead of a
// generic denial.
func WithCredentialError(ctx context.Context, err *AuthError) context.Context {
	return context.WithValue(ctx, credentialErrCtxKey, err)
}

// CredentialErrorFromContext returns the recorded verification failure.
func CredentialErrorFromContext(ctx context.Context) (*AuthError, bool) {
	err, ok := ctx.Value(credentialErrCtxKey).(*AuthError)
	if !ok || err == nil {
		return nil, false
	}
	return err, true
}
