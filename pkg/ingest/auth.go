package ingest

import (
	"net/http"

	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/tokenstore"
)

const tokenHeader = "X-Fileset-Token"

// RequireToken gates every /_fs/api/* route behind a bearer token, except:
// local dev bypasses auth entirely, and cron.timed_deploy accepts the
// platform's cron-marker header in place of a token (App Engine cron jobs
// carry no bearer credential).
func RequireToken(cfg *config.Config, tokens *tokenstore.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.IsLocalDev() {
				next.ServeHTTP(w, r)
				return
			}

			if isCronRequest(r, cfg) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(tokenHeader)
			if token == "" {
				writeError(w, http.StatusForbidden, "missing "+tokenHeader)
				return
			}

			valid, err := tokens.IsValid(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "token validation failed")
				return
			}
			if !valid {
				writeError(w, http.StatusForbidden, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isCronRequest(r *http.Request, cfg *config.Config) bool {
	if r.URL.Path != "/_fs/api/cron.timed_deploy" {
		return false
	}
	return r.Header.Get(cfg.CronMarkerHeader) == cfg.CronMarkerValue
}
