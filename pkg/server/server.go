// Package server orchestrates the Resolver, ETag handling, error
// documents, and blob streaming described in spec.md §4.6 and §7.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/fileset/fileset/pkg/blobstore"
	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/manifeststore"
	"github.com/fileset/fileset/pkg/resolver"
)

// Server serves end-user GET/HEAD requests.
type Server struct {
	Config    *config.Config
	Blobs     *blobstore.Store
	Manifests *manifeststore.Store
	AppID     string // the appspot.com application id used for staging branch detection
}

func New(cfg *config.Config, blobs *blobstore.Store, manifests *manifeststore.Store, appID string) *Server {
	return &Server{Config: cfg, Blobs: blobs, Manifests: manifests, AppID: appID}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := resolver.DecodePath(r.URL.Path)
	if err != nil {
		path = r.URL.Path
	}
	path = resolver.JoinIndex(path)

	isHTML := strings.HasSuffix(path, ".html")
	if isHTML {
		path = strings.ToLower(path)
		for k, v := range s.Config.ResponseHeaders["html"] {
			w.Header().Set(k, v)
		}
	}

	branch := resolver.BranchForRequest(hostOnly(r.Host), s.Config, s.AppID)

	manifest, err := s.loadManifest(r, branch)
	if err != nil {
		log.Printf("[server] manifest load error for branch %q: %v", branch, err)
		s.serveError(w, r, http.StatusInternalServerError, nil)
		return
	}
	if manifest == nil {
		s.serveError(w, r, http.StatusNotFound, nil)
		return
	}

	in := resolver.RequestLocaleInputs{
		HL:             strings.ToLower(r.URL.Query().Get("hl")),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Country:        strings.ToLower(r.Header.Get("X-Appengine-Country")),
	}

	sha, ok := resolver.ResolvePath(manifest, path, in, s.Config.IntlPathFormat)
	if !ok {
		s.serveError(w, r, http.StatusNotFound, manifest)
		return
	}

	s.serveBlob(w, r, sha)
}

// loadManifest resolves either a pinned manifest-<N> branch or the
// branch's current manifest pointer.
func (s *Server) loadManifest(r *http.Request, branch string) (*manifeststore.Manifest, error) {
	if id, ok := resolver.PinnedManifestID(branch); ok {
		return s.Manifests.Get(r.Context(), id)
	}
	return s.Manifests.GetBranchManifest(r.Context(), branch)
}

// serveError implements §4.6 step 6 / §7: try the "/<code>.html" document
// from the provided manifest, falling back to the default branch's
// manifest, and finally a plain-text body.
func (s *Server) serveError(w http.ResponseWriter, r *http.Request, code int, manifest *manifeststore.Manifest) {
	if manifest == nil {
		var err error
		manifest, err = s.Manifests.GetBranchManifest(r.Context(), s.Config.DefaultBranch)
		if err != nil {
			log.Printf("[server] default branch manifest load error: %v", err)
		}
	}

	if manifest != nil {
		docPath := fmt.Sprintf("/%d.html", code)
		if sha, ok := manifest.Paths[docPath]; ok {
			data, err := s.Blobs.Read(r.Context(), sha)
			if err == nil {
				w.Header().Set("ETag", fmt.Sprintf("%q", sha))
				if ct, ctErr := s.Blobs.ContentType(r.Context(), sha); ctErr == nil && ct != "" {
					w.Header().Set("Content-Type", ct)
				}
				w.WriteHeader(code)
				if r.Method != http.MethodHead {
					w.Write(data)
				}
				return
			}
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		fmt.Fprintf(w, "%d\n", code)
	}
}

func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, sha string) {
	etag := fmt.Sprintf("%q", sha)
	w.Header().Set("ETag", etag)
	if ct, err := s.Blobs.ContentType(r.Context(), sha); err == nil && ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.Blobs.StreamTo(r.Context(), sha, w); err != nil {
		// Downstream streaming failed; best-effort second attempt via a
		// buffered read, per §7.
		data, readErr := s.Blobs.Read(r.Context(), sha)
		if readErr != nil {
			if errors.Is(readErr, blobstore.ErrNotFound) {
				s.serveError(w, r, http.StatusNotFound, nil)
				return
			}
			s.serveError(w, r, http.StatusInternalServerError, nil)
			return
		}
		w.Write(data)
	}
}

func hostOnly(host string) string {
	if idx := strings.Index(host, ":"); idx >= 0 {
		return host[:idx]
	}
	return host
}
