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
package session

import (
	"net/url"
	"sync"

	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/m3umanifest"
	"github.com/a13labs/radiocast/pkg/upstream"
)

// Store caches the session-qualified manifest URL per base stream URL.
// Sessions have no expiry: once resolved they are reused until a caller
// invalidates them after a failed or stale fetch.
type Store struct {
	mu       sync.Mutex
	sessions map[string]string
	client   *upstream.Client
}

func NewStore(client *upstream.Client) *Store {
	return &Store{
		sessions: make(map[string]string),
		client:   client,
	}
}

// Resolve returns the cached session URL for baseURL, fetching and scanning
// the top-level manifest on a cache miss. When the manifest carries no
// manifest reference, baseURL itself is returned as a pass-through fallback.
func (s *Store) Resolve(baseURL string) (string, error) {
	s.mu.Lock()
	if sessionURL, ok := s.sessions[baseURL]; ok {
		s.mu.Unlock()
		logger.Debugf("Using cached session for %s", baseURL)
		return sessionURL, nil
	}
	s.mu.Unlock()

	// The lock is not held across the fetch: a slow origin for one stream
	// must not block resolution of another. Concurrent first resolutions of
	// the same stream may both fetch; the last write wins.
	logger.Infof("Fetching initial session from: %s", baseURL)
	resp, err := s.client.Fetch(baseURL, nil)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(resp.FinalURL)
	if err != nil {
		return "", err
	}

	manifest := m3umanifest.Decode(string(resp.Body), base)

	ref := manifest.ManifestRef()
	if ref == "" {
		// No variant reference: the base URL already serves the media
		// playlist, use it directly.
		return baseURL, nil
	}

	resolved, err := manifest.ResolveURI(ref)
	if err != nil {
		return "", err
	}
	sessionURL := resolved.String()

	s.mu.Lock()
	s.sessions[baseURL] = sessionURL
	s.mu.Unlock()

	logger.Infof("Cached new session URL (will reuse indefinitely): %s", sessionURL)
	return sessionURL, nil
}

// Invalidate drops the cached session for baseURL. It is a no-op when no
// session is cached.
func (s *Store) Invalidate(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, baseURL)
}
