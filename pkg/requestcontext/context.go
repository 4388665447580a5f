// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values set by middleware.
//
// Only the transport layer reads the actor from the context. Service
// operations that need an actor take it as an explicit argument:
//
//	actor := requestcontext.ActorFrom(ctx)
//	err := svc.LaasVersjon(ctx, actor, behandlingID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithRequestID(ctx, "req-1")
package requestcontext

import (
	"context"
	"time"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyActor       = actorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Actor identifies who is calling: a caseworker ident (e.g. "Z123456") or a
// system client id.
type Actor struct {
	Ident    string
	IsSystem bool
}

// IsZero reports whether no actor was authenticated.
func (a Actor) IsZero() bool { return a.Ident == "" }

// ActorFrom retrieves the authenticated actor. Returns the zero Actor if not set.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(ContextKeyActor).(Actor); ok {
		return a
	}
	return Actor{}
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, a)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
