package urlutil

import (
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// Resolve resolves ref against base and returns an absolute URL string.
// If ref is already absolute it is returned as parsed. An empty string is
// returned when either side does not parse.
func Resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

// IsAbsolute reports whether raw parses as an absolute http(s) URL.
func IsAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	StripTrailingSlash bool   // treat /a and /a/ the same by removing trailing slash (except root "/")
	DefaultScheme      string // if empty, require scheme in input; otherwise assume this scheme for schemeless URLs
}

// Canonicalize returns a deterministic canonical URL string or an error.
// It lowercases scheme and host, converts IDN hosts to punycode, drops
// credentials and fragments, cleans the path and sorts query parameters.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: errEmptyURL}
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: errMissingHost}
	}

	u.Scheme = strings.ToLower(u.Scheme)

	// Lowercase host and convert IDN -> punycode
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default port only
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	u.User = nil
	u.Fragment = ""

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = "/"
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
		if cleanPath == "" {
			cleanPath = "/"
		}
	}
	u.Path = cleanPath

	// Sort query keys and values for deterministic encoding
	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// Key returns the canonical form of raw for use as a map key, so equivalent
// spellings (trailing slash, default port, host case, fragments) collapse to
// one entry. Input that does not canonicalize is keyed by its trimmed text.
func Key(raw string) string {
	c, err := Canonicalize(raw, CanonicalizeOptions{StripTrailingSlash: true})
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return c
}

var (
	errEmptyURL    = &errStr{"empty url"}
	errMissingHost = &errStr{"missing host"}
)

type errStr struct{ s string }

func (e *errStr) Error() string { return e.s }
