package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fileset/fileset/pkg/config"
)

func TestCanonicalDomainRedirectsInProduction(t *testing.T) {
	cfg := &config.Config{CanonicalDomain: "www.example.com", Env: "production"}
	handler := CanonicalDomain(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("should not reach inner handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "http://old.example.com/about?x=1", nil)
	req.Host = "old.example.com"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "http://www.example.com/about?x=1" {
		t.Fatalf("unexpected Location %q", loc)
	}
}

func TestCanonicalDomainSkippedOutsideProduction(t *testing.T) {
	cfg := &config.Config{CanonicalDomain: "www.example.com", Env: "dev"}
	called := false
	handler := CanonicalDomain(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "http://old.example.com/about", nil)
	req.Host = "old.example.com"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected inner handler to run outside production")
	}
}

func TestHTTPSUpgradeRedirects(t *testing.T) {
	cfg := &config.Config{RequireHTTPS: true, Env: "production"}
	handler := HTTPSUpgrade(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("should not reach inner handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/about", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/about" {
		t.Fatalf("unexpected Location %q", loc)
	}
}

func TestHTTPSUpgradeSkippedInDev(t *testing.T) {
	cfg := &config.Config{RequireHTTPS: true, Env: "dev"}
	called := false
	handler := HTTPSUpgrade(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "http://localhost/about", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected inner handler to run in dev")
	}
}
