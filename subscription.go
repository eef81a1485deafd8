package gqlauth

import (
	"context"
	"time"
)

// SubscriptionResolver starts a stream of results. Implementations must
// stop emitting and close the channel once ctx is cancelled; timed waits
// between emissions have to select on ctx.Done rather than sleep.
type SubscriptionResolver func(ctx context.Context, root any, args map[string]any) (<-chan Result, error)

// SubscriptionField is a streaming operation guarded by the same directive
// chain as a regular field. Directives evaluate once, when the stream is
// opened; a denial yields a single error-arm result and no emissions.
type SubscriptionField struct {
	Name       string
	Directives []Directive
	Subscribe  SubscriptionResolver
}

// NewSubscriptionField builds a guarded streaming field.
func NewSubscriptionField(name string, resolver SubscriptionResolver, directives ...Directive) *SubscriptionField {
	return &SubscriptionField{
		Name:       name,
		Directives: directives,
		Subscribe:  resolver,
	}
}

// Stream evaluates the directive chain and opens the underlying stream.
// Denials are delivered on the stream itself so the union convention holds
// for subscriptions exactly as it does for request/response fields.
func (f *SubscriptionField) Stream(ctx context.Context, root any, args map[string]any) (<-chan Result, error) {
	info := ResolverInfo{FieldName: f.Name}

	if denial := resolveDirectives(ctx, f.Directives, root, info, args); denial != nil {
		out := make(chan Result, 1)
		out <- Deny(denial)
		close(out)
		return out, nil
	}

	return f.Subscribe(ctx, root, args)
}

// IntervalStream emits count values produced by next, waiting interval
// between emissions. Cancelling ctx between items tears the stream down
// without further sends. The first value is emitted immediately.
func IntervalStream(ctx context.Context, count int, interval time.Duration, next func(i int) any) <-chan Result {
	out := make(chan Result)

	go func() {
		defer close(out)

		timer := time.NewTimer(0)
		defer timer.Stop()

		for i := 0; i < count; i++ {
			if i > 0 {
				timer.Reset(interval)
			}

			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			select {
			case <-ctx.Done():
				return
			case out <- OK(next(i)):
			}
		}
	}()

	return out
}
