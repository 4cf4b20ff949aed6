// Package resolver implements the request -> branch -> manifest -> path
// resolution described in spec.md §4.6: branch selection from the request
// host, and path resolution (direct for non-HTML, locale-fallback for
// HTML).
package resolver

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/fileset/fileset/pkg/config"
	"github.com/fileset/fileset/pkg/locale"
	"github.com/fileset/fileset/pkg/manifeststore"
)

var manifestPinPattern = regexp.MustCompile(`^manifest-(\d+)$`)

// BranchForRequest determines the branch a request should serve from, per
// §4.6.2. host is the request Host header (without port); appID is the
// appspot.com application id used to extract the staging subdomain prefix.
func BranchForRequest(host string, cfg *config.Config, appID string) string {
	host = strings.ToLower(host)

	stagingSuffix := "-dot-" + appID + ".appspot.com"
	if strings.HasSuffix(host, stagingSuffix) {
		prefix := strings.TrimSuffix(host, stagingSuffix)
		if prefix == "" {
			return cfg.DefaultBranch
		}
		return prefix
	}

	return cfg.DefaultBranch
}

// PinnedManifestID reports whether branch has the form manifest-<N> (all
// digits) and, if so, returns N.
func PinnedManifestID(branch string) (int64, bool) {
	m := manifestPinPattern.FindStringSubmatch(branch)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DecodePath percent-decodes a raw request path per §4.6 step 1: standard
// percent-decoding, with `+` also mapped to space.
func DecodePath(raw string) (string, error) {
	raw = strings.ReplaceAll(raw, "+", "%20")
	return url.PathUnescape(raw)
}

// JoinIndex appends index.html when path has no file extension, adding a
// single "/" first when path does not already end in one. It does not
// clean the path: ".." segments or doubled slashes already in path are
// kept as they are.
func JoinIndex(path string) string {
	if hasExtension(path) {
		return path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + "index.html"
}

func hasExtension(path string) bool {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.Contains(base, ".")
}

// RequestLocaleInputs bundles the inputs to the locale fallback chain.
type RequestLocaleInputs struct {
	HL             string
	AcceptLanguage string
	Country        string
}

// ResolvePath resolves path to a blob sha within manifest. Non-HTML paths
// are a direct lookup. HTML paths iterate the locale fallback candidates
// in order and return the first hit.
func ResolvePath(manifest *manifeststore.Manifest, path string, in RequestLocaleInputs, intlFormat string) (sha string, ok bool) {
	if manifest == nil {
		return "", false
	}

	if !strings.HasSuffix(path, ".html") {
		sha, ok = manifest.Paths[path]
		return sha, ok
	}

	country := in.Country
	if country == "" {
		country = "us"
	}

	fallback := locale.FallbackLanguages(in.HL, locale.ParseAcceptLanguage(in.AcceptLanguage), country)
	candidates := locale.CandidatePaths(path, fallback, country, intlFormat)

	for _, candidate := range candidates {
		if sha, ok := manifest.Paths[candidate]; ok {
			return sha, true
		}
	}
	return "", false
}
