package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/routetrie"
)

// redirectTemplate is what the RouteTrie stores as its value.
type redirectTemplate struct {
	Code string // "301", "302", or "no-redirect"
	Dest string
}

// BuildRedirectTrie constructs a RouteTrie from the configured (code,
// source, dest) tuples.
func BuildRedirectTrie(redirects []config.Redirect) *routetrie.Trie {
	t := routetrie.New()
	for _, r := range redirects {
		t.Add(strings.ToLower(r.Source), redirectTemplate{Code: r.Code, Dest: r.Dest})
	}
	return t
}

// Redirects implements spec.md §4.7 step 5: look up path.lower() in the
// RouteTrie; on a hit whose code is not "no-redirect", substitute $name
// placeholders from captured params, preserve/merge the query string when
// the destination is site-relative, and issue the redirect with
// Cache-Control: no-cache.
func Redirects(trie *routetrie.Trie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, params, ok := trie.Get(strings.ToLower(r.URL.Path))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			tmpl, ok := value.(redirectTemplate)
			if !ok || tmpl.Code == "no-redirect" {
				next.ServeHTTP(w, r)
				return
			}

			dest := substituteParams(tmpl.Dest, params)
			if strings.HasPrefix(dest, "/") && r.URL.RawQuery != "" {
				if strings.Contains(dest, "?") {
					dest += "&" + r.URL.RawQuery
				} else {
					dest += "?" + r.URL.RawQuery
				}
			}

			code, err := strconv.Atoi(tmpl.Code)
			if err != nil {
				code = http.StatusFound
			}

			w.Header().Set("Cache-Control", "no-cache")
			http.Redirect(w, r, dest, code)
		})
	}
}

func substituteParams(dest string, params map[string]string) string {
	for name, value := range params {
		dest = strings.ReplaceAll(dest, "$"+name, value)
	}
	return dest
}
