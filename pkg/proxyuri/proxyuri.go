package proxyuri

import (
	"errors"
	"net/url"
)

// Package proxyuri encodes an absolute origin URL into a path addressable by
// the segment proxy and decodes it back. The encoding keeps scheme, host,
// path and query so that decoding always reproduces the original URL.

var ErrInvalidProxyURI = errors.New("invalid proxy URI")

// Encode returns the proxy path suffix "<scheme>/<host><path>[?<query>]" for
// an absolute origin URL. The caller prepends its own "/proxy/" mount point.
func Encode(u *url.URL) string {
	return u.Scheme + "/" + u.Host + u.RequestURI()
}

// Decode reassembles the origin URL from the routed path variables. rest is
// "<host><path>" as matched by the router; the query string travels outside
// the path and is passed separately.
func Decode(scheme string, rest string, rawQuery string) (*url.URL, error) {
	if scheme != "http" && scheme != "https" {
		return nil, ErrInvalidProxyURI
	}

	raw := scheme + "://" + rest
	if rawQuery != "" {
		raw += "?" + rawQuery
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, ErrInvalidProxyURI
	}
	return u, nil
}
