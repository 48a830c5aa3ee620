// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	Admin  bool
}

type principalKey struct{}

// WithRequestID sets the chi request id so chimw.GetReqID can retrieve it
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithPrincipal annotates context with the authenticated caller
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if p.UserID == "" {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller if present
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// UserID returns the authenticated user id on the context if present
func UserID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}
