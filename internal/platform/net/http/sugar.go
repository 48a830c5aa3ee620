package http

import "net/http"

// GetJSON mounts a pure JSON handler for GET
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, JSONHandlerNoBody(h))
}

// DeleteJSON mounts a pure JSON handler for DELETE (no request body)
func DeleteJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Delete(path, JSONHandlerNoBody(h))
}

// PostNoBody mounts a JSON handler for POST actions that carry no body
func PostNoBody(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, JSONHandlerNoBody(h))
}

// PutNoBody mounts a JSON handler for PUT actions that carry no body
func PutNoBody(r Router, path string, h func(*http.Request) (any, error)) {
	r.Put(path, JSONHandlerNoBody(h))
}

// PostJSON mounts a pure JSON handler for POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSONHandler(h))
}

// PutJSON mounts a pure JSON handler for PUT
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Put(path, JSONHandler(h))
}
