package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fileset/fileset/pkg/accesspolicy"
	"github.com/fileset/fileset/pkg/adminauth"
	"github.com/fileset/fileset/pkg/config"
)

const sessionCookieName = "fileset_session"

// AuthGate implements spec.md §4.7 step 4: when REQUIRE_AUTH or the
// environment is staging, every request must carry a logged-in principal
// whose email is authorized per the AUTHORIZED_USERS/AUTHORIZED_ORGS
// policy. Unauthenticated requests redirect to login; authenticated but
// unauthorized requests get 403.
func AuthGate(cfg *config.Config, auth *adminauth.Service, policy *accesspolicy.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAuth && cfg.Env != "staging" {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r)
				return
			}

			claims, err := auth.VerifySession(cookie.Value)
			if err != nil {
				redirectToLogin(w, r)
				return
			}

			allowed, err := policy.Allowed(r.Context(), claims.Email)
			if err != nil || !allowed {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	dest := "/_fs/login?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, dest, http.StatusFound)
}
