package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fileset/fileset/pkg/config"
)

func TestRedirectPreservesQueryAndSubstitutesParams(t *testing.T) {
	trie := BuildRedirectTrie([]config.Redirect{
		{Code: "302", Source: "/old/:slug", Dest: "/new/$slug/"},
	})

	handler := Redirects(trie)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("should not reach inner handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/old/42?utm=x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/new/42/?utm=x" {
		t.Fatalf("expected Location /new/42/?utm=x, got %q", loc)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("expected Cache-Control no-cache, got %q", cc)
	}
}

func TestNoRedirectPassesThrough(t *testing.T) {
	trie := BuildRedirectTrie([]config.Redirect{
		{Code: "no-redirect", Source: "/old/keep", Dest: ""},
	})

	called := false
	handler := Redirects(trie)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/old/keep", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected inner handler to be called")
	}
}
