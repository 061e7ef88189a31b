package gateway

import "net/http"

// Middleware runs before route matching. Returning false stops dispatch; the
// middleware must already have written a response.
type Middleware func(w http.ResponseWriter, r *http.Request) bool

// Preflight answers every OPTIONS request with a bare 200.
func Preflight() Middleware {
	return func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method != http.MethodOptions {
			return true
		}
		w.WriteHeader(http.StatusOK)
		return false
	}
}
