package locale

import (
	"reflect"
	"testing"
)

func TestFallbackLanguagesHLTakesPrecedence(t *testing.T) {
	got := FallbackLanguages("zh-TW", []string{"fr"}, "")
	want := []string{"zh-tw", "zh", "fr", "en"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFallbackLanguagesCJKExpansion(t *testing.T) {
	got := FallbackLanguages("", []string{"zh-cn"}, "")
	want := []string{"zh-cn", "zh-hans", "zh-hant", "zh", "en"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFallbackLanguagesCountryDefactoAndDedup(t *testing.T) {
	got := FallbackLanguages("", []string{"zh-tw"}, "TW")
	want := []string{"zh-tw", "zh-hant", "zh", "en"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFallbackLanguagesES419(t *testing.T) {
	got := FallbackLanguages("", []string{"es"}, "mx")
	want := []string{"es", "es-419", "en"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFallbackLanguagesAlwaysEndsInEnglish(t *testing.T) {
	got := FallbackLanguages("fr", nil, "")
	if got[len(got)-1] != "en" {
		t.Fatalf("expected trailing en, got %v", got)
	}
}

func TestParseAcceptLanguageOrdersByQValue(t *testing.T) {
	got := ParseAcceptLanguage("fr;q=0.5, en-US;q=0.9, de;q=0.9")
	want := []string{"en-US", "de", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseAcceptLanguageIgnoresWildcard(t *testing.T) {
	got := ParseAcceptLanguage("en, *;q=0.1")
	want := []string{"en"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCandidatePathsPhaseOrdering(t *testing.T) {
	got := CandidatePaths("/about/index.html", []string{"zh-tw", "en"}, "tw", "/intl/{locale}{path}")
	want := []string{
		"/intl/zh-tw_tw/about/index.html",
		"/intl/zh_tw_tw/about/index.html",
		"/intl/en_tw/about/index.html",
		"/intl/zh-tw/about/index.html",
		"/intl/zh_tw/about/index.html",
		"/intl/en/about/index.html",
		"/about/index.html",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
