package httpkit

import (
	"net/http"

	phttp "marketfeed/internal/platform/net/http"
)

// Get mounts a body-less JSON handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) { phttp.GetJSON(r, path, h) }

// Delete mounts a body-less JSON handler under DELETE
func Delete(r Router, path string, h func(*http.Request) (any, error)) { phttp.DeleteJSON(r, path, h) }

// Post mounts a body-less JSON handler under POST
func Post(r Router, path string, h func(*http.Request) (any, error)) { phttp.PostNoBody(r, path, h) }

// Put mounts a body-less JSON handler under PUT
func Put(r Router, path string, h func(*http.Request) (any, error)) { phttp.PutNoBody(r, path, h) }

// PostJSON mounts a bound and validated JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}

// PutJSON mounts a bound and validated JSON handler under PUT
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PutJSON(r, path, h)
}
