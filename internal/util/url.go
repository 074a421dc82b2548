package util

import (
	"net/url"
	"strings"
)

// SafeRedirect returns target when it is a same-site destination,
// otherwise fallback. Accepted targets are relative paths ("/dashboard")
// and absolute http(s) URLs whose host equals baseURL's host.
func SafeRedirect(target, baseURL, fallback string) string {
	if target == "" || !isSameSite(target, baseURL) {
		return fallback
	}
	return target
}

func isSameSite(target, baseURL string) bool {
	// Browsers drop tabs and newlines, so "/\t/evil.com" becomes "//evil.com".
	// Backslashes are read as slashes.
	if strings.IndexFunc(target, isUnsafeRedirectRune) >= 0 {
		return false
	}

	if strings.HasPrefix(target, "/") {
		// "//evil.com" is protocol-relative, not a path
		return !strings.HasPrefix(target, "//")
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

func isUnsafeRedirectRune(r rune) bool {
	return r < 0x20 || r == 0x7f || r == '\\'
}
