// Package httpkit re-exports the platform http helpers modules need
// modules import this rather than internal/platform/net/http
package httpkit

import (
	"net/http"

	phttp "churnops/internal/platform/net/http"
	"churnops/internal/platform/net/http/bind"
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

	// Router is the platform router seam
	Router = phttp.Router

	// JSONOptions controls body decoding
	JSONOptions = bind.JSONOptions
)

// OK returns a 200 enveloped response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 enveloped response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Raw returns a 200 response written without the envelope
func Raw(body any) Response { return phttp.Raw(body) }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns a 200 response with items and pagination
func List(items any, total, page, size int) Response {
	return phttp.List(items, total, page, size)
}

// JSON decodes and validates T before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error), opts ...JSONOptions) Handler {
	return phttp.JSONHandler(fn, opts...)
}

// Call adapts a handler that takes no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.NoBodyHandler(fn) }

// Handle adapts a Response returning func
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// URLParam returns a path parameter
func URLParam(r *http.Request, key string) string { return phttp.URLParam(r, key) }
