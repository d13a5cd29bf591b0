/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"net/http"
	"regexp"
)

var (
	cookieDomainRe = regexp.MustCompile(`;\s*[Dd]omain=[^;]+`)
	cookieSecureRe = regexp.MustCompile(`;\s*[Ss]ecure`)
)

// proxyBaseURL derives the externally visible base URL of this proxy from the
// request, honoring reverse-proxy forwarding headers.
func proxyBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}

	return scheme + "://" + host
}

// sanitizeSetCookie rewrites an origin Set-Cookie header so the cookie stays
// usable through the proxy: the Domain attribute is dropped because the
// client talks to us, not the origin, and Secure is dropped so plain-HTTP
// deployments keep working.
func sanitizeSetCookie(header string) string {
	header = cookieDomainRe.ReplaceAllString(header, "")
	header = cookieSecureRe.ReplaceAllString(header, "")
	return header
}

func forwardSetCookies(w http.ResponseWriter, setCookies []string) {
	for _, c := range setCookies {
		w.Header().Add("Set-Cookie", sanitizeSetCookie(c))
	}
}

// clientCookies collects the request cookies for forwarding to the origin.
func clientCookies(r *http.Request) map[string]string {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	return cookies
}

// flushWriter pushes every chunk to the client immediately, which live
// streaming clients depend on.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}
