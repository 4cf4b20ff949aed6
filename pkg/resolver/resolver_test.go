package resolver

import (
	"testing"

	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/manifeststore"
)

func TestBranchForRequestStagingPrefix(t *testing.T) {
	cfg := &config.Config{DefaultBranch: "master"}
	got := BranchForRequest("feature-x-dot-myapp.appspot.com", cfg, "myapp")
	if got != "feature-x" {
		t.Fatalf("expected feature-x, got %q", got)
	}
}

func TestBranchForRequestProductionAndDevFallToDefault(t *testing.T) {
	cfg := &config.Config{DefaultBranch: "master"}
	if got := BranchForRequest("www.example.com", cfg, "myapp"); got != "master" {
		t.Fatalf("expected master, got %q", got)
	}
	if got := BranchForRequest("localhost", cfg, "myapp"); got != "master" {
		t.Fatalf("expected master for dev host, got %q", got)
	}
	if got := BranchForRequest("-dot-myapp.appspot.com", cfg, "myapp"); got != "master" {
		t.Fatalf("expected master for empty staging prefix, got %q", got)
	}
}

func TestPinnedManifestID(t *testing.T) {
	id, ok := PinnedManifestID("manifest-42")
	if !ok || id != 42 {
		t.Fatalf("expected (42, true), got (%d, %v)", id, ok)
	}
	if _, ok := PinnedManifestID("master"); ok {
		t.Fatalf("expected false for non-pinned branch")
	}
}

func TestDecodePathSpacePlusAndPercent(t *testing.T) {
	got, err := DecodePath("/a+b%20c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/a b c" {
		t.Fatalf("expected \"/a b c\", got %q", got)
	}
}

func TestJoinIndexAppendsOnlyWithoutExtension(t *testing.T) {
	if got := JoinIndex("/about"); got != "/about/index.html" {
		t.Fatalf("got %q", got)
	}
	if got := JoinIndex("/about/"); got != "/about/index.html" {
		t.Fatalf("got %q", got)
	}
	if got := JoinIndex("/style.css"); got != "/style.css" {
		t.Fatalf("got %q", got)
	}
}

func TestResolvePathDirectLookup(t *testing.T) {
	m := &manifeststore.Manifest{Paths: map[string]string{"/style.css": "sha-css"}}
	sha, ok := ResolvePath(m, "/style.css", RequestLocaleInputs{}, "/intl/{locale}{path}")
	if !ok || sha != "sha-css" {
		t.Fatalf("expected direct hit, got (%q, %v)", sha, ok)
	}
}

func TestResolvePathLocaleFallback(t *testing.T) {
	m := &manifeststore.Manifest{Paths: map[string]string{
		"/intl/zh-hant/about/index.html": "sha-zh-hant",
		"/about/index.html":              "sha-default",
	}}
	in := RequestLocaleInputs{Country: "tw"}
	sha, ok := ResolvePath(m, "/about/index.html", in, "/intl/{locale}{path}")
	if !ok || sha != "sha-zh-hant" {
		t.Fatalf("expected locale-specific hit, got (%q, %v)", sha, ok)
	}
}

func TestResolvePathFallsBackToDefaultPath(t *testing.T) {
	m := &manifeststore.Manifest{Paths: map[string]string{
		"/about/index.html": "sha-default",
	}}
	sha, ok := ResolvePath(m, "/about/index.html", RequestLocaleInputs{}, "/intl/{locale}{path}")
	if !ok || sha != "sha-default" {
		t.Fatalf("expected fallback to bare path, got (%q, %v)", sha, ok)
	}
}

func TestResolvePathMiss(t *testing.T) {
	m := &manifeststore.Manifest{Paths: map[string]string{}}
	if _, ok := ResolvePath(m, "/missing.html", RequestLocaleInputs{}, "/intl/{locale}{path}"); ok {
		t.Fatalf("expected miss")
	}
}
