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
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
)

func TestProxySegmentRoundTrip(t *testing.T) {
	segment := bytes.Repeat([]byte{0xFA}, 20000)

	var gotQuery string
	var gotCookie string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if c, err := r.Cookie("wowza"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "audio/aac")
		w.Header().Set("Cache-Control", "max-age=10")
		w.Write(segment)
	}))
	defer origin.Close()

	_, router := newTestServer(origin.URL + "/playlist.m3u8")

	originURL, _ := url.Parse(origin.URL)
	req := httptest.NewRequest("GET",
		"http://proxy.local/proxy/http/"+originURL.Host+"/live/media_1.aac?listeningSessionID=abc", nil)
	req.AddCookie(&http.Cookie{Name: "wowza", Value: "xyz"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), segment) {
		t.Errorf("Segment body corrupted: expected %d bytes, got %d", len(segment), rec.Body.Len())
	}
	if gotQuery != "listeningSessionID=abc" {
		t.Errorf("Origin query lost in proxy round-trip: %q", gotQuery)
	}
	if gotCookie != "xyz" {
		t.Errorf("Client cookie not forwarded to origin: %q", gotCookie)
	}
	if rec.Header().Get("Content-Type") != "audio/aac" {
		t.Errorf("Unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Cache-Control") != "max-age=10" {
		t.Errorf("Origin cache-control not relayed: %s", rec.Header().Get("Cache-Control"))
	}
}

func TestProxySegmentDefaultContentType(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/strange")
		w.Write([]byte("data"))
	}))
	defer origin.Close()

	_, router := newTestServer(origin.URL + "/playlist.m3u8")

	originURL, _ := url.Parse(origin.URL)
	req := httptest.NewRequest("GET", "http://proxy.local/proxy/http/"+originURL.Host+"/media_1.aac", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Type") != "audio/aac" {
		t.Errorf("Expected default audio content type, got %s", rec.Header().Get("Content-Type"))
	}
}

func TestProxySubManifestRewrite(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXTINF:9,title=\"Song\",artist=\"Artist\"\nmedia_1.aac\n")
	}))
	defer origin.Close()

	_, router := newTestServer(origin.URL + "/playlist.m3u8")

	originURL, _ := url.Parse(origin.URL)
	req := httptest.NewRequest("GET", "http://proxy.local/proxy/http/"+originURL.Host+"/live/chunklist.m3u8", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d", rec.Code)
	}

	expected := "http://proxy.local/proxy/http/" + originURL.Host + "/live/media_1.aac"
	if !strings.Contains(rec.Body.String(), expected) {
		t.Errorf("Expected rewritten sub-manifest segment %s, got:\n%s", expected, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != manifestContentType {
		t.Errorf("Unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("icy-description") != "Artist - Song" {
		t.Errorf("Unexpected icy-description: %s", rec.Header().Get("icy-description"))
	}
}

func TestProxySubManifestRedirectLoop(t *testing.T) {
	var withQuery, withoutQuery int32

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("listeningSessionID") != "" {
			// Session-qualified fetch only yields another session reference
			atomic.AddInt32(&withQuery, 1)
			fmt.Fprint(w, "#EXTM3U\nchunklist.m3u8?listeningSessionID=next\n")
			return
		}
		atomic.AddInt32(&withoutQuery, 1)
		fmt.Fprint(w, "#EXTM3U\n#EXTINF:9,title=\"Song\",artist=\"Artist\"\nmedia_1.aac\n")
	}))
	defer origin.Close()

	_, router := newTestServer(origin.URL + "/playlist.m3u8")

	originURL, _ := url.Parse(origin.URL)
	req := httptest.NewRequest("GET",
		"http://proxy.local/proxy/http/"+originURL.Host+"/chunklist.m3u8?listeningSessionID=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/media_1.aac") {
		t.Errorf("Expected fresh media playlist after loop break, got:\n%s", rec.Body.String())
	}

	// Exactly one query-stripped refetch, never a second
	if n := atomic.LoadInt32(&withQuery); n != 1 {
		t.Errorf("Expected 1 session-qualified fetch, got %d", n)
	}
	if n := atomic.LoadInt32(&withoutQuery); n != 1 {
		t.Errorf("Expected 1 query-stripped refetch, got %d", n)
	}
}

func TestProxyRejectsInvalidPath(t *testing.T) {
	_, router := newTestServer("http://origin.invalid/playlist.m3u8")

	req := httptest.NewRequest("GET", "http://proxy.local/proxy/ftp/host/file", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported scheme, got %d", rec.Code)
	}
}

func TestProxySegmentGatewayError(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer origin.Close()

	_, router := newTestServer(origin.URL + "/playlist.m3u8")

	originURL, _ := url.Parse(origin.URL)
	req := httptest.NewRequest("GET", "http://proxy.local/proxy/http/"+originURL.Host+"/media_1.aac", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}
