package middleware

import (
	"net/http"

	"github.com/fileset/fileset/pkg/config"
)

// CanonicalDomain implements spec.md §4.7 step 2: if a canonical domain is
// configured and the environment is production and the request host
// differs, redirect preserving scheme, path, and query.
func CanonicalDomain(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.CanonicalDomain != "" && cfg.Env == "production" && r.Host != cfg.CanonicalDomain {
				target := requestScheme(r) + "://" + cfg.CanonicalDomain + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
