package country

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Suffix returns the last label of the public suffix of uri's host, for
// example "jp" for "https://example.co.jp/a". It returns "" when no host
// can be found.
func Suffix(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if !strings.Contains(uri, "://") {
		uri = "http://" + uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	ps, _ := publicsuffix.PublicSuffix(host)
	if i := strings.LastIndexByte(ps, '.'); i >= 0 {
		ps = ps[i+1:]
	}
	return ps
}
