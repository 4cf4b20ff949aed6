// Package locale implements the locale fallback chain described in
// spec.md §4.6.1: given hl, Accept-Language, and a country code, it builds
// an ordered, deduped list of fallback languages and then emits the
// ordered sequence of /intl/<locale><path> candidate paths to probe against
// a manifest.
package locale

import (
	"sort"
	"strconv"
	"strings"
)

// cjkExpansions maps an Accept-Language entry to additional languages to
// append right after it, per §4.6.1 step 2.
var cjkExpansions = map[string][]string{
	"zh-cn": {"zh-hans", "zh-hant", "zh"},
	"zh-hk": {"zh-hant", "zh"},
	"zh-tw": {"zh-hant", "zh"},
}

// countryDefacto maps a country code to its de-facto fallback languages,
// per §4.6.1 step 3. The three CJK special cases are explicit; all other
// countries fall through to no de-facto languages (no CLDR-style data
// source is wired in).
var countryDefacto = map[string][]string{
	"cn": {"zh-cn", "zh-hans", "zh-hant", "zh"},
	"hk": {"zh-hk", "zh-hant", "zh"},
	"tw": {"zh-tw", "zh-hant", "zh"},
}

// es419Countries is the fixed set from §4.6.1 step 3.
var es419Countries = map[string]bool{
	"ar": true, "bo": true, "cl": true, "co": true, "cr": true, "do": true,
	"ec": true, "fk": true, "gf": true, "gt": true, "gy": true, "hn": true,
	"mx": true, "ni": true, "pa": true, "pe": true, "pr": true, "py": true,
	"sr": true, "sv": true, "uy": true, "ve": true,
}

const defaultLang = "en"

// FallbackLanguages builds the ordered, deduped fallback-language list from
// the hl query parameter, the parsed Accept-Language header (most
// preferred first), and the request's country code.
func FallbackLanguages(hl string, acceptLanguage []string, country string) []string {
	var ordered []string
	seen := map[string]bool{}

	add := func(lang string) {
		lang = strings.ToLower(lang)
		if lang == "" || seen[lang] {
			return
		}
		seen[lang] = true
		ordered = append(ordered, lang)
	}

	hl = strings.ToLower(hl)
	if hl != "" {
		add(hl)
		if idx := strings.Index(hl, "-"); idx >= 0 {
			add(hl[:idx])
		}
	}

	for _, lang := range acceptLanguage {
		lang = strings.ToLower(lang)
		add(lang)
		if expansions, ok := cjkExpansions[lang]; ok {
			for _, e := range expansions {
				add(e)
			}
		}
	}

	country = strings.ToLower(country)
	if defacto, ok := countryDefacto[country]; ok {
		for _, lang := range defacto {
			add(lang)
		}
	}
	if es419Countries[country] {
		add("es-419")
	}

	add(defaultLang)

	return ordered
}

// ParseAcceptLanguage parses an Accept-Language header value into an
// ordered slice of language tags, most preferred first, per RFC 7231
// quality values. Ties are broken by original order (stable sort).
func ParseAcceptLanguage(header string) []string {
	if header == "" {
		return nil
	}

	type weighted struct {
		lang   string
		q      float64
		index  int
	}

	var entries []weighted
	for i, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lang := part
		q := 1.0
		if semi := strings.Index(part, ";"); semi >= 0 {
			lang = strings.TrimSpace(part[:semi])
			params := part[semi+1:]
			for _, p := range strings.Split(params, ";") {
				p = strings.TrimSpace(p)
				if strings.HasPrefix(p, "q=") {
					if parsed, err := strconv.ParseFloat(strings.TrimPrefix(p, "q="), 64); err == nil {
						q = parsed
					}
				}
			}
		}
		if lang == "" || lang == "*" {
			continue
		}
		entries = append(entries, weighted{lang: lang, q: q, index: i})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].q > entries[j].q
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.lang
	}
	return out
}

// underscored turns "zh-hant" into "zh_hant".
func underscored(lang string) string {
	return strings.ReplaceAll(lang, "-", "_")
}

// format substitutes {locale} and {path} in the INTL_PATH_FORMAT template.
func format(tmpl, locale, path string) string {
	out := strings.ReplaceAll(tmpl, "{locale}", locale)
	out = strings.ReplaceAll(out, "{path}", path)
	return out
}

// CandidatePaths emits the ordered locale candidate paths for path, per
// §4.6.1: Phase A (language+country combos), then Phase B (language-only,
// with the bare path emitted right after the default language `en`'s
// candidates).
func CandidatePaths(path string, fallbackLanguages []string, country string, tmpl string) []string {
	var out []string
	country = strings.ToLower(country)

	// Phase A: with country.
	for _, lang := range fallbackLanguages {
		out = append(out, format(tmpl, lang+"_"+country, path))
		if strings.Contains(lang, "-") {
			out = append(out, format(tmpl, underscored(lang)+"_"+country, path))
		}
	}

	// Phase B: without country.
	for _, lang := range fallbackLanguages {
		out = append(out, format(tmpl, lang, path))
		if strings.Contains(lang, "-") {
			out = append(out, format(tmpl, underscored(lang), path))
		}
		if lang == defaultLang {
			out = append(out, path)
		}
	}

	return out
}
