package testutil

import (
	"net/http"

	"grunnlag/pkg/requestcontext"
)

// WithActor authenticates req as a caseworker, as the auth middleware would.
func WithActor(req *http.Request, ident string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), requestcontext.Actor{Ident: ident})
	return req.WithContext(ctx)
}

// WithSystemActor authenticates req as a machine client.
func WithSystemActor(req *http.Request, clientID string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), requestcontext.Actor{Ident: clientID, IsSystem: true})
	return req.WithContext(ctx)
}
