package gqlauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Result is the union value every guarded field resolves to: exactly one of
// Data or Err is set. The execution engine renders it by runtime tag — the
// error arm carries an AuthError, the success arm the resolver's value.
type Result struct {
	Data any        `json:"data,omitempty"`
	Err  *AuthError `json:"error,omitempty"`
}

// OK wraps a resolver value as the success arm.
func OK(data any) Result {
	return Result{Data: data}
}

// Deny wraps an AuthError as the error arm.
func Deny(err *AuthError) Result {
	return Result{Err: err}
}

// Denied reports whether the result carries the error arm.
func (r Result) Denied() bool {
	return r.Err != nil
}

// Resolver produces a field's success value. Returning an AuthError (as the
// error) routes it onto the result's error arm; any other error is treated
// as an unexpected fault and aborts the surrounding request.
type Resolver func(ctx context.Context, root any, args map[string]any) (any, error)

// Field is a named operation with an ordered directive chain. Directives
// evaluate in declared order before the resolver runs; the first denial
// becomes the field's result and the resolver body never executes.
type Field struct {
	Name       string
	Directives []Directive
	Resolve    Resolver
}

// NewField builds a guarded field.
func NewField(name string, resolver Resolver, directives ...Directive) *Field {
	return &Field{
		Name:       name,
		Directives: directives,
		Resolve:    resolver,
	}
}

// Execute evaluates the directive chain and, if every directive allows,
// invokes the resolver. Expected denials come back on the Result's error
// arm; the returned error is reserved for unexpected faults (storage,
// encoding) that should fail the request itself.
func (f *Field) Execute(ctx context.Context, root any, args map[string]any) (Result, error) {
	info := ResolverInfo{FieldName: f.Name}

	if denial := resolveDirectives(ctx, f.Directives, root, info, args); denial != nil {
		return Deny(denial), nil
	}

	if f.Resolve == nil {
		return Result{}, goerrors.New("field has no resolver", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"field": f.Name})
	}

	value, err := f.Resolve(ctx, root, args)
	if err != nil {
		if authErr, ok := AsAuthError(err); ok {
			return Deny(authErr), nil
		}
		return Result{}, err
	}

	return OK(value), nil
}

// FieldSet groups named operations. A Field whose resolver returns a
// *FieldSet forms a nested scope: its inner operations are only reachable
// after the outer field's directives (typically TokenRequired) pass.
type FieldSet struct {
	fields map[string]*Field
}

// NewFieldSet builds an operation group.
func NewFieldSet(fields ...*Field) *FieldSet {
	set := &FieldSet{fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		set.Add(f)
	}
	return set
}

// Add registers a field, replacing any previous field of the same name.
func (s *FieldSet) Add(field *Field) *FieldSet {
	if field != nil && field.Name != "" {
		s.fields[field.Name] = field
	}
	return s
}

// Field looks up a registered operation.
func (s *FieldSet) Field(name string) (*Field, bool) {
	field, ok := s.fields[name]
	return field, ok
}

// Execute dispatches a named operation.
func (s *FieldSet) Execute(ctx context.Context, name string, root any, args map[string]any) (Result, error) {
	field, ok := s.Field(name)
	if !ok {
		return Result{}, goerrors.New("unknown field", goerrors.CategoryNotFound).
			WithMetadata(map[string]any{"field": name})
	}
	return field.Execute(ctx, root, args)
}
