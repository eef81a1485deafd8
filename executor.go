package gqlauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Executor binds a field set to a token service so callers can resolve a
// request credential once and run any number of guarded fields against the
// resulting identity.
type Executor struct {
	fields *FieldSet
	tokens TokenService
	logger Logger
}

// NewExecutor creates an Executor over the given field set. The token
// service may be nil when fields are only ever executed with a context
// already carrying an identity.
func NewExecutor(fields *FieldSet, tokens TokenService) *Executor {
	return &Executor{
		fields: fields,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger.
func (e *Executor) WithLogger(logger Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// RequestContext resolves a raw credential once per request and stamps the
// identity and credential into the context. An empty credential yields an
// anonymous context so unauthenticated requests still execute public fields.
// Verification failures are recorded alongside the anonymous identity rather
// than returned: the directive layer produces the caller-facing denial, with
// the recorded failure code where one exists.
func (e *Executor) RequestContext(ctx context.Context, rawCredential string) context.Context {
	if rawCredential == "" {
		return WithIdentity(ctx, AnonymousIdentity())
	}

	if e.tokens == nil {
		e.logger.Warn("Executor received a credential but has no token service")
		return WithIdentity(ctx, AnonymousIdentity())
	}

	identity, credential, err := e.tokens.Resolve(ctx, rawCredential)
	if err != nil {
		return e.rejectedContext(ctx, err)
	}

	return WithCredential(WithIdentity(ctx, identity), credential)
}

func (e *Executor) rejectedContext(ctx context.Context, err error) context.Context {
	e.logger.Debug("credential rejected: %v", err)
	ctx = WithIdentity(ctx, AnonymousIdentity())
	if denied, ok := AsAuthError(err); ok {
		ctx = WithCredentialError(ctx, denied)
	}
	return ctx
}

// Execute resolves the credential and runs the named field in one call.
func (e *Executor) Execute(ctx context.Context, rawCredential, field string, root any, args map[string]any) (Result, error) {
	if e.fields == nil {
		return Result{}, goerrors.New("executor has no field set", goerrors.CategoryInternal)
	}

	ctx = e.RequestContext(ctx, rawCredential)

	return e.fields.Execute(ctx, field, root, args)
}
