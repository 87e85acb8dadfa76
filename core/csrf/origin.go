package csrf

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeOrigin reduces a URL or origin string to "scheme://host[:port]"
// in lower case, dropping default ports. It returns "" when raw carries no
// usable scheme and host, which includes the literal "null" origin.
func NormalizeOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	return scheme + "://" + host
}

// requestOrigin returns the normalized declared origin and whether any
// origin information was present at all.
func requestOrigin(origin, referer string) (normalized string, present bool) {
	if origin = strings.TrimSpace(origin); origin != "" {
		return NormalizeOrigin(origin), true
	}
	if referer = strings.TrimSpace(referer); referer != "" {
		return NormalizeOrigin(referer), true
	}
	return "", false
}
