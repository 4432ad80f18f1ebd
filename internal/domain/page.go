package domain

import (
	"net/url"
	"path"
	"strings"
)

// DefaultAPIEndpoint is used when a page URL carries no host.
const DefaultAPIEndpoint = "https://en.wikipedia.org/w/api.php"

// TitleFromURL derives a page title from a wiki page URL.
// The last path segment is percent-decoded and underscores become spaces.
// Query strings and fragments are ignored.
func TitleFromURL(pageURL string) string {
	var p string
	if u, err := url.Parse(pageURL); err == nil {
		p = u.EscapedPath()
	} else {
		// Fall back to a plain split so malformed input still yields a title.
		p = pageURL
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
	}
	segment := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		segment = p[i+1:]
	}
	return unquote(strings.ReplaceAll(segment, "_", " "))
}

// unquote decodes every valid %XX escape in s and keeps malformed ones as
// they are. Byte sequences that do not form UTF-8 become U+FFFD.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// APIEndpointFor returns the action API endpoint serving pageURL's wiki.
func APIEndpointFor(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return DefaultAPIEndpoint
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path.Join("/w", "api.php")}).String()
}
