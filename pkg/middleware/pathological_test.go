package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPathologicalInputRedirectsPercentFF(t *testing.T) {
	called := false
	handler := PathologicalInput(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/%ff", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatalf("inner handler should not run")
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected Location /, got %q", loc)
	}
}

func TestPathologicalInputPassesNormalPaths(t *testing.T) {
	called := false
	handler := PathologicalInput(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected inner handler to run")
	}
}
