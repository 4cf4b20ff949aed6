package middleware

import "net/http"

// Chain composes middleware in the order they must run: Chain(a, b, c)(h)
// runs a, then b, then c, then h.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		h := final
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
