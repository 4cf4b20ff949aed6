package routetrie

import "testing"

func TestPrecedenceLiteralBeatsParamBeatsWild(t *testing.T) {
	tr := New()
	tr.Add("/old/42", "literal")
	tr.Add("/old/:slug", "param")
	tr.Add("/old/*rest", "wild")

	v, params, ok := tr.Get("/old/42")
	if !ok || v != "literal" {
		t.Fatalf("expected literal match, got %v %v %v", v, params, ok)
	}

	v, params, ok = tr.Get("/old/99")
	if !ok || v != "param" || params["slug"] != "99" {
		t.Fatalf("expected param match with slug=99, got %v %v %v", v, params, ok)
	}
}

func TestWildcardConsumesRemainder(t *testing.T) {
	tr := New()
	tr.Add("/assets/*path", "asset")

	v, params, ok := tr.Get("/assets/css/site.css")
	if !ok || v != "asset" {
		t.Fatalf("expected wild match, got %v %v", v, ok)
	}
	if params["path"] != "css/site.css" {
		t.Fatalf("expected path=css/site.css, got %q", params["path"])
	}
}

func TestOverwriteOnReAdd(t *testing.T) {
	tr := New()
	tr.Add("/old/:slug", "first")
	tr.Add("/old/:slug", "second")

	v, _, ok := tr.Get("/old/1")
	if !ok || v != "second" {
		t.Fatalf("expected overwritten value 'second', got %v %v", v, ok)
	}
}

func TestMiss(t *testing.T) {
	tr := New()
	tr.Add("/old/:slug", "x")

	if _, _, ok := tr.Get("/new/1"); ok {
		t.Fatalf("expected miss")
	}
}

func TestParamCapture(t *testing.T) {
	tr := New()
	tr.Add("/new/:slug/", "tmpl")

	v, params, ok := tr.Get("/new/42/")
	if !ok || v != "tmpl" {
		t.Fatalf("expected match, got %v %v", v, ok)
	}
	if params["slug"] != "42" {
		t.Fatalf("expected slug=42, got %q", params["slug"])
	}
}
