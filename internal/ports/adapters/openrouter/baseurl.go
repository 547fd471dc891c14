package openrouter

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

// Hosts reachable without an explicit OPENROUTER_ALLOWED_HOSTS override.
var defaultHosts = []string{"openrouter.ai", "api.openrouter.ai"}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL enforces the oracle endpoint policy: an absolute https
// URL with no credentials or query baggage, pointing at an allowlisted
// host. allowedHosts comes from config or the OPENROUTER_ALLOWED_HOSTS
// environment variable; empty means the builtin defaults.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)
	fail := func(format string, args ...any) error {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: "+format, append([]any{baseURL}, args...)...)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL: %w", err)
	}
	switch {
	case !u.IsAbs() || u.Hostname() == "":
		return fail("absolute URL with host is required")
	case u.User != nil:
		return fail("userinfo is not allowed")
	case u.RawQuery != "" || u.Fragment != "":
		return fail("query and fragment are not allowed")
	case !strings.EqualFold(u.Scheme, "https"):
		return fail("https is required")
	}

	host := strings.ToLower(u.Hostname())
	if !hostAllowed(host, allowedHosts) {
		return fail("host %q is not in OPENROUTER_ALLOWED_HOSTS", host)
	}
	return nil
}

// hostAllowed checks host against the allowlist. An override that cleans
// down to nothing falls back to the defaults instead of locking the
// adapter out entirely.
func hostAllowed(host string, allowedHosts []string) bool {
	set := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		if v := cleanHost(h); v != "" {
			set[v] = true
		}
	}
	if len(set) == 0 {
		for _, h := range defaultHosts {
			set[h] = true
		}
	}
	return set[host]
}

// cleanHost tolerates allowlist entries written as URLs or host:port.
func cleanHost(h string) string {
	v := strings.ToLower(strings.TrimSpace(h))
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	v = strings.Trim(v, "/")
	if i := strings.IndexByte(v, ':'); i >= 0 {
		v = v[:i]
	}
	return v
}
