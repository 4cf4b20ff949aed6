package adminauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fileset/fileset/pkg/tokenstore"
)

const sessionCookieName = "fileset_session"

type loginRequest struct {
	Password string `json:"password"`
}

// Handler exposes the admin login and token-minting pages that stand in
// for the identity provider the spec leaves out of scope.
type Handler struct {
	Service *Service
	Tokens  *tokenstore.Store
}

func NewHandler(svc *Service, tokens *tokenstore.Store) *Handler {
	return &Handler{Service: svc, Tokens: tokens}
}

// Login implements POST /_fs/login: verifies the admin password and sets a
// session cookie carrying a signed JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.Service.Login(req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "logged in"})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    sessionCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusOK)
}

// MintToken implements GET /_fs/token: the logged-in admin mints a new
// bearer token, described by the admin's own identity (the original tool's
// user.email()), and gets back the plaintext "save this to .fileset.json"
// instructions block reproduced verbatim per spec.md §6, not a JSON body.
func (h *Handler) MintToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	claims, err := h.Service.VerifySession(cookie.Value)
	if err != nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	raw, err := h.Tokens.Create(r.Context(), "token for "+claims.Email, claims.Email)
	if err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "{\n"+
		"  \"token\": %q\n"+
		"}\n\n"+
		"Save this to .fileset.json in your project root.\n"+
		"Pass the token value in the X-Fileset-Token header on every /_fs/api request.\n"+
		"It is shown only once; if lost, reload this page to mint a new one and discard this.\n", raw)
}
