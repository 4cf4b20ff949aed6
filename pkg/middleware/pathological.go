package middleware

import (
	"net/http"
	"strings"
)

// PathologicalInput implements spec.md §4.7 step 1: if the raw PATH_INFO
// percent-encodes to /%ff (case-insensitive), redirect to /.
func PathologicalInput(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.EscapedPath(), "/%ff") {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
