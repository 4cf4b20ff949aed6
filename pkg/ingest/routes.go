package ingest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/tokenstore"
)

// Register mounts every /_fs/api/* route on router, wrapped in the bearer
// token gate described in spec.md §4.5.
func Register(router *mux.Router, h *Handler, cfg *config.Config, tokens *tokenstore.Store) {
	gate := RequireToken(cfg, tokens)

	api := router.PathPrefix("/_fs/api").Subrouter()
	api.Handle("/manifest.upload", gate(http.HandlerFunc(h.ManifestUpload))).Methods("POST")
	api.Handle("/blob.upload", gate(http.HandlerFunc(h.BlobUpload))).Methods("POST")
	api.Handle("/blob.exists", gate(http.HandlerFunc(h.BlobExists))).Methods("POST")
	api.Handle("/branch.set_manifest", gate(http.HandlerFunc(h.BranchSetManifest))).Methods("POST")
	api.Handle("/cron.timed_deploy", gate(http.HandlerFunc(h.CronTimedDeploy))).Methods("GET", "POST")
}
