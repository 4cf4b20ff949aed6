package middleware

import (
	"net/http"

	"github.com/fileset/fileset/pkg/config"
)

// HTTPSUpgrade implements spec.md §4.7 step 3: if REQUIRE_HTTPS or
// Upgrade-Insecure-Requests: 1, and env != dev and scheme != https,
// redirect to the https equivalent.
func HTTPSUpgrade(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wantsUpgrade := cfg.RequireHTTPS || r.Header.Get("Upgrade-Insecure-Requests") == "1"
			if wantsUpgrade && cfg.Env != "dev" && requestScheme(r) != "https" {
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
