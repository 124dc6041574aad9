// Package hostname normalizes the site identifiers that key every usage
// record. A widget may report its host as "acme.io", "ACME.io" or a full
// origin URL; the canonical key is the literal lowercase hostname, and the
// www-prefixed sibling is only ever a lookup fallback, never a write-time
// merge.
package hostname

import (
	"net/url"
	"strings"
)

const wwwPrefix = "www."

// Normalize reduces a reported site identifier to its lowercase hostname.
// Widgets send anything from a bare "acme.io" to a full origin such as
// "https://acme.io/", so the scheme, path, port and trailing dot are all
// stripped. It returns "" when nothing usable remains, signaling callers
// to skip usage operations entirely.
func Normalize(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if _, rest, ok := strings.Cut(host, "://"); ok {
		host = rest
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host, _, _ = strings.Cut(host, ":")
	host = strings.TrimSuffix(host, ".")
	if strings.ContainsAny(host, " ") {
		return ""
	}
	return host
}

// Variations returns the lookup candidates for a reported hostname, most
// specific first: the normalized form, then its www-toggled sibling
// ("acme.io" <-> "www.acme.io"). The caller tries each until a record
// matches.
func Variations(raw string) []string {
	host := Normalize(raw)
	if host == "" {
		return nil
	}
	if bare, ok := strings.CutPrefix(host, wwwPrefix); ok && bare != "" {
		return []string{host, bare}
	}
	return []string{host, wwwPrefix + host}
}

// FromURL extracts the hostname from a URL, Origin or Referer style value.
// Bare hostnames are accepted as-is; scheme-qualified values are parsed
// and reduced to their host component, dropping any port.
func FromURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil || u.Hostname() == "" {
			return ""
		}
		return Normalize(u.Hostname())
	}
	if host, _, ok := strings.Cut(value, ":"); ok {
		value = host
	}
	if strings.ContainsAny(value, "/ ") {
		return ""
	}
	return Normalize(value)
}
