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
package session_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/a13labs/radiocast/pkg/session"
	"github.com/a13labs/radiocast/pkg/upstream"
)

func TestResolveCachesSession(t *testing.T) {
	var hits int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=135680\nchunklist_w123.m3u8?listeningSessionID=abc\n")
	}))
	defer origin.Close()

	store := session.NewStore(upstream.NewClient(upstream.DefaultHeaders(), 5))

	baseURL := origin.URL + "/playlist.m3u8"
	expected := origin.URL + "/chunklist_w123.m3u8?listeningSessionID=abc"

	first, err := store.Resolve(baseURL)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}
	if first != expected {
		t.Errorf("Unexpected session URL. Expected: %s, Got: %s", expected, first)
	}

	// Repeated resolutions return the identical URL without an upstream call
	for i := 0; i < 3; i++ {
		again, err := store.Resolve(baseURL)
		if err != nil {
			t.Fatalf("Failed to resolve cached session: %v", err)
		}
		if again != first {
			t.Errorf("Cached session URL changed: %s", again)
		}
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected exactly 1 upstream fetch, got %d", n)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var hits int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		fmt.Fprintf(w, "#EXTM3U\nchunklist.m3u8?listeningSessionID=session%d\n", n)
	}))
	defer origin.Close()

	store := session.NewStore(upstream.NewClient(upstream.DefaultHeaders(), 5))
	baseURL := origin.URL + "/playlist.m3u8"

	first, err := store.Resolve(baseURL)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}

	store.Invalidate(baseURL)

	second, err := store.Resolve(baseURL)
	if err != nil {
		t.Fatalf("Failed to resolve session after invalidation: %v", err)
	}
	if first == second {
		t.Errorf("Expected a fresh session after invalidation, got %s twice", first)
	}

	// Invalidating an absent entry is a no-op
	store.Invalidate("http://unknown.example.com/playlist.m3u8")
}

func TestResolveFallbackWithoutManifestRef(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXTINF:9,title=\"Song\",artist=\"Artist\"\nmedia_1.aac\n")
	}))
	defer origin.Close()

	store := session.NewStore(upstream.NewClient(upstream.DefaultHeaders(), 5))
	baseURL := origin.URL + "/playlist.m3u8"

	resolved, err := store.Resolve(baseURL)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}
	if resolved != baseURL {
		t.Errorf("Expected pass-through fallback to the base URL, got %s", resolved)
	}
}

func TestResolvePropagatesUpstreamFailure(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer origin.Close()

	store := session.NewStore(upstream.NewClient(upstream.DefaultHeaders(), 5))

	if _, err := store.Resolve(origin.URL + "/playlist.m3u8"); err == nil {
		t.Error("Expected an error for a failing origin")
	}
}
