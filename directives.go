package gqlauth

import (
	"context"
)

// ResolverInfo carries the schema position a directive is guarding. The
// execution engine fills it in before invoking a field's directive chain.
type ResolverInfo struct {
	// FieldName is the operation the caller addressed, used verbatim in
	// denial messages.
	FieldName string
	// ParentType names the object type the field hangs off, when known.
	ParentType string
}

// Directive is a predicate attached to a schema field. ResolvePermission
// returns nil to allow execution or an AuthError that becomes the field's
// result in place of the resolver's. Implementations must be pure: identical
// (ctx, root, info, args) inputs yield identical results, and the only state
// consulted is the request context.
//
// Directives are plain values and can be invoked directly with constructed
// arguments, no schema execution required.
type Directive interface {
	ResolvePermission(ctx context.Context, root any, info ResolverInfo, args map[string]any) *AuthError
}

// DirectiveFunc adapts a function to the Directive interface.
type DirectiveFunc func(ctx context.Context, root any, info ResolverInfo, args map[string]any) *AuthError

// ResolvePermission implements Directive.
func (f DirectiveFunc) ResolvePermission(ctx context.Context, root any, info ResolverInfo, args map[string]any) *AuthError {
	if f == nil {
		return nil
	}
	return f(ctx, root, info, args)
}

// TokenRequired gates entry into an authenticated sub-scope of the schema:
// a nested group of operations only reachable once a presented credential
// verified. It is evaluated at the scope boundary, not on every inner field,
// which is why it stays distinct from IsAuthenticated.
type TokenRequired struct{}

// ResolvePermission denies when the request carries no verified credential.
// A credential that failed verification propagates its failure code, so the
// caller sees EXPIRED or REVOKED rather than a generic denial; a request
// that never presented one gets UNAUTHENTICATED.
func (TokenRequired) ResolvePermission(ctx context.Context, _ any, _ ResolverInfo, _ map[string]any) *AuthError {
	if _, ok := CredentialFromContext(ctx); ok {
		return nil
	}
	if denied, ok := CredentialErrorFromContext(ctx); ok {
		return denied
	}
	return NewAuthError(CodeUnauthenticated)
}

// IsAuthenticated denies anonymous callers.
type IsAuthenticated struct{}

// ResolvePermission implements Directive.
func (IsAuthenticated) ResolvePermission(ctx context.Context, _ any, _ ResolverInfo, _ map[string]any) *AuthError {
	if CurrentIdentity(ctx).IsAnonymous() {
		return NewAuthError(CodeUnauthenticated)
	}
	return nil
}

// IsVerified denies callers whose account has not completed verification.
// Anonymous callers count as unverified.
type IsVerified struct{}

// ResolvePermission implements Directive.
func (IsVerified) ResolvePermission(ctx context.Context, _ any, _ ResolverInfo, _ map[string]any) *AuthError {
	if !CurrentIdentity(ctx).IsVerified() {
		return NewAuthError(CodeNotVerified)
	}
	return nil
}

// HasPermission denies callers missing any of the listed permissions. The
// denial message names both the caller and the guarded field so clients can
// report actionable errors.
type HasPermission struct {
	Permissions []string
}

// ResolvePermission implements Directive.
func (d HasPermission) ResolvePermission(ctx context.Context, _ any, info ResolverInfo, _ map[string]any) *AuthError {
	identity := CurrentIdentity(ctx)
	if identity.HasPermissions(d.Permissions...) {
		return nil
	}

	return NewAuthErrorf(
		CodeNoSufficientPermissions,
		"User %s, has not sufficient permissions for %s",
		identity.Username,
		info.FieldName,
	)
}

// resolveDirectives runs the chain in declared order and returns the first
// denial. Order matters: it decides which error the caller sees.
func resolveDirectives(ctx context.Context, directives []Directive, root any, info ResolverInfo, args map[string]any) *AuthError {
	for _, directive := range directives {
		if directive == nil {
			continue
		}
		if denial := directive.ResolvePermission(ctx, root, info, args); denial != nil {
			return denial
		}
	}
	return nil
}
