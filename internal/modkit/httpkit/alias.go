// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "marketfeed/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope
	// Page is the pagination metadata type
	Page = phttp.Page
	// Response is the HTTP response type
	Response = phttp.Response
	// Handler is the platform handler type
	Handler = phttp.Handler
	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns a 200 response with items and a has_more page block
func List(items any, page, size int, hasMore bool) Response {
	return phttp.List(items, page, size, hasMore)
}

// Handle adapts a Response-returning function
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// Param returns a path parameter captured by the router
func Param(r *http.Request, key string) string { return phttp.URLParam(r, key) }
