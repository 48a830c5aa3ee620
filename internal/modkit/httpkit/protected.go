package httpkit

import "marketfeed/internal/platform/net/middleware"

// Protected groups routes under bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}

// Admin groups routes under bearer auth plus the admin check
func Admin(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p), AdminOnly())
		fn(gr)
	})
}
