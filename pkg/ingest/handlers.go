// Package ingest implements the admin/CI-facing API under /_fs/api/*
// described in spec.md §4.5: manifest.upload, blob.upload, blob.exists,
// branch.set_manifest, and cron.timed_deploy.
package ingest

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fileset/fileset/pkg/audit"
	"github.com/fileset/fileset/pkg/blobstore"
	"github.com/fileset/fileset/pkg/cronjob"
	"github.com/fileset/fileset/pkg/deployqueue"
	"github.com/fileset/fileset/pkg/manifeststore"
	"github.com/fileset/fileset/pkg/webhook"
)

type Handler struct {
	Blobs       *blobstore.Store
	Manifests   *manifeststore.Store
	CronJob     *cronjob.Service
	DeployQueue *deployqueue.Service
	Webhook     *webhook.Service
	Audit       *audit.Service
}

func NewHandler(blobs *blobstore.Store, manifests *manifeststore.Store, cron *cronjob.Service, dq *deployqueue.Service, hook *webhook.Service, aud *audit.Service) *Handler {
	return &Handler{
		Blobs:       blobs,
		Manifests:   manifests,
		CronJob:     cron,
		DeployQueue: dq,
		Webhook:     hook,
		Audit:       aud,
	}
}

func principal(r *http.Request) string {
	if v, ok := r.Header["X-Fileset-Token"]; ok && len(v) > 0 {
		return "token"
	}
	return "cron"
}

// writeJSON writes a successful response, always carrying the
// spec-required "success" field alongside the handler's own fields.
func writeJSON(w http.ResponseWriter, status int, v map[string]interface{}) {
	v["success"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the spec's {success:false, error:...} JSON envelope
// (spec.md §4.5/§6/§7) in place of http.Error's plain text.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg})
}

// manifestUploadRequest is the body of POST /_fs/api/manifest.upload, per
// spec.md §4.5: {commit, files:[{sha,path}...]}. Files is converted to the
// Paths map the manifest store persists, last-occurrence-wins when two
// entries name the same path, matching original_source/fileset/server/api.py's
// ManifestUploadHandler.
type manifestUploadRequest struct {
	Commit json.RawMessage `json:"commit"`
	Files  []struct {
		SHA  string `json:"sha"`
		Path string `json:"path"`
	} `json:"files"`
}

// ManifestUpload implements POST /_fs/api/manifest.upload.
func (h *Handler) ManifestUpload(w http.ResponseWriter, r *http.Request) {
	var req manifestUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "files must be non-empty")
		return
	}

	paths := make(map[string]string, len(req.Files))
	for _, f := range req.Files {
		paths[f.Path] = f.SHA
	}

	id, err := h.Manifests.Save(r.Context(), req.Commit, paths)
	if err != nil {
		log.Printf("[ingest] manifest.upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save manifest")
		return
	}

	if h.Audit != nil {
		h.Audit.Log(r.Context(), principal(r), "manifest.upload", "", map[string]interface{}{
			"manifest_id": id,
			"path_count":  len(paths),
		})
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"manifest_id": id})
}

// BlobUpload implements POST /_fs/api/blob.upload, a multipart form with a
// "sha" field and a "blob" part.
func (h *Handler) BlobUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	sha := r.FormValue("sha")
	if sha == "" {
		writeError(w, http.StatusBadRequest, "sha is required")
		return
	}

	file, header, err := r.FormFile("blob")
	if err != nil {
		writeError(w, http.StatusBadRequest, "blob part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.Blobs.Write(r.Context(), sha, data, contentType); err != nil {
		if err == blobstore.ErrHashMismatch {
			writeError(w, http.StatusBadRequest, "sha does not match uploaded content")
			return
		}
		log.Printf("[ingest] blob.upload failed for %s: %v", sha, err)
		writeError(w, http.StatusInternalServerError, "failed to store blob")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"sha": sha, "size": len(data)})
}

// blobExistsRequest is the body of POST /_fs/api/blob.exists.
type blobExistsRequest struct {
	SHA string `json:"sha"`
}

// BlobExists implements POST /_fs/api/blob.exists, letting a deploying
// client skip re-uploading content it already has.
func (h *Handler) BlobExists(w http.ResponseWriter, r *http.Request) {
	var req blobExistsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SHA == "" {
		writeError(w, http.StatusBadRequest, "sha is required")
		return
	}

	exists, err := h.Blobs.Exists(r.Context(), req.SHA)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "existence check failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"exists": exists})
}

// branchSetManifestRequest is the body of POST /_fs/api/branch.set_manifest.
type branchSetManifestRequest struct {
	Branch          string `json:"branch"`
	ManifestID      int64  `json:"manifest_id"`
	DeployTimestamp *int64 `json:"deploy_timestamp,omitempty"`
}

// BranchSetManifest implements POST /_fs/api/branch.set_manifest: either
// promotes a branch pointer immediately, or schedules a TimedDeploy if
// deploy_timestamp is in the future.
func (h *Handler) BranchSetManifest(w http.ResponseWriter, r *http.Request) {
	var req branchSetManifestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Branch == "" {
		writeError(w, http.StatusBadRequest, "branch is required")
		return
	}

	manifest, err := h.Manifests.Get(r.Context(), req.ManifestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load manifest")
		return
	}
	if manifest == nil {
		writeError(w, http.StatusBadRequest, "manifest not found")
		return
	}

	now := time.Now()
	if err := h.Manifests.SetBranchManifest(r.Context(), req.Branch, req.ManifestID, req.DeployTimestamp, now); err != nil {
		log.Printf("[ingest] branch.set_manifest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to set branch manifest")
		return
	}

	scheduled := req.DeployTimestamp != nil && *req.DeployTimestamp > now.Unix()
	action := "branch.set_manifest"
	if scheduled {
		action = "branch.schedule_deploy"
	}

	if h.Audit != nil {
		h.Audit.Log(r.Context(), principal(r), action, req.Branch, map[string]interface{}{
			"manifest_id": req.ManifestID,
		})
	}

	if !scheduled {
		if h.DeployQueue != nil {
			h.DeployQueue.Enqueue(r.Context(), deployqueue.Event{
				Action:     "branch.set_manifest",
				Branch:     req.Branch,
				ManifestID: req.ManifestID,
				User:       principal(r),
				Timestamp:  now.Unix(),
			})
		} else if h.Webhook != nil {
			// Without a deploy queue there is no worker to deliver the
			// webhook, so notify directly.
			go h.Webhook.Notify(r.Context(), webhook.Event{
				Action:     "branch.set_manifest",
				Branch:     req.Branch,
				ManifestID: req.ManifestID,
				Timestamp:  now,
				User:       principal(r),
			})
		}
	}

	resp := map[string]interface{}{
		"branch":      req.Branch,
		"manifest_id": req.ManifestID,
	}
	if req.DeployTimestamp != nil {
		resp["deploy_timestamp"] = *req.DeployTimestamp
	} else {
		resp["deploy_timestamp"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// CronTimedDeploy implements cron.timed_deploy: GET (platform cron) or POST
// (manual trigger), running one promotion pass synchronously so the caller
// gets the result in the response.
func (h *Handler) CronTimedDeploy(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.CronJob.PromoteDue(r.Context())
	if err != nil {
		log.Printf("[ingest] cron.timed_deploy failed: %v", err)
		writeError(w, http.StatusInternalServerError, "promotion pass failed")
		return
	}

	// PromoteDue already queued an event per promotion for the delivery
	// worker; notify directly only when there is no deploy queue.
	if h.Webhook != nil && h.DeployQueue == nil {
		for _, p := range promoted {
			go h.Webhook.Notify(r.Context(), webhook.Event{
				Action:     "timed_deploy_promoted",
				Branch:     p.Branch,
				ManifestID: p.ManifestID,
				Timestamp:  time.Now(),
				User:       "cron",
			})
		}
	}

	deployments := make([]map[string]interface{}, 0, len(promoted))
	for _, p := range promoted {
		deployments = append(deployments, map[string]interface{}{
			"branch":      p.Branch,
			"manifest_id": p.ManifestID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deployments": deployments})
}
