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
	"bufio"
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/m3umanifest"
	"github.com/a13labs/radiocast/pkg/proxyuri"
	"github.com/a13labs/radiocast/pkg/upstream"

	"github.com/grafov/m3u8"
)

const manifestContentType = "application/vnd.apple.mpegurl"

// fetchSessionManifest resolves the stream session and fetches the current
// media playlist. A failed fetch invalidates the session and retries once; a
// stale session (variant playlist returned instead of media segments) is also
// corrected with exactly one invalidate-and-refetch.
func (s *Server) fetchSessionManifest() (*m3umanifest.Manifest, *upstream.Response, error) {

	sessionURL, err := s.sessions.Resolve(s.config.StreamURL)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.client.Fetch(sessionURL, nil)
	if err != nil {
		// Session might be dead - invalidate cache and try once more
		logger.Warnf("Session request failed (%v), refreshing session", err)
		s.sessions.Invalidate(s.config.StreamURL)
		sessionURL, err = s.sessions.Resolve(s.config.StreamURL)
		if err != nil {
			return nil, nil, err
		}
		resp, err = s.client.Fetch(sessionURL, nil)
		if err != nil {
			return nil, nil, err
		}
	}

	manifest, err := decodeManifest(resp)
	if err != nil {
		return nil, nil, err
	}

	if !manifest.HasMediaSegments() && isVariantPlaylist(resp.Body) {
		// The session went stale: the origin answered with another variant
		// playlist instead of media segments. Refresh the session once.
		logger.Warn("Got variant playlist instead of media playlist, refreshing session")
		s.sessions.Invalidate(s.config.StreamURL)
		sessionURL, err = s.sessions.Resolve(s.config.StreamURL)
		if err != nil {
			return nil, nil, err
		}
		resp, err = s.client.Fetch(sessionURL, nil)
		if err != nil {
			return nil, nil, err
		}
		manifest, err = decodeManifest(resp)
		if err != nil {
			return nil, nil, err
		}
	}

	return manifest, resp, nil
}

func decodeManifest(resp *upstream.Response) (*m3umanifest.Manifest, error) {
	base, err := url.Parse(resp.FinalURL)
	if err != nil {
		return nil, err
	}
	return m3umanifest.Decode(string(resp.Body), base), nil
}

// isVariantPlaylist classifies a playlist document as a master (variant)
// playlist rather than a media playlist.
func isVariantPlaylist(body []byte) bool {
	_, listType, err := m3u8.DecodeFrom(bufio.NewReader(bytes.NewReader(body)), false)
	if err != nil {
		return false
	}
	return listType == m3u8.MASTER
}

// rewriteManifest produces a new playlist document with every segment line
// replaced by a proxy URI. Comment and metadata lines pass through verbatim.
func rewriteManifest(manifest *m3umanifest.Manifest, proxyBase string) string {
	var out strings.Builder
	for _, line := range manifest.Lines {
		if line.Kind != m3umanifest.LineSegment {
			out.WriteString(line.Raw)
			out.WriteString("\n")
			continue
		}

		segmentURL, err := manifest.ResolveURI(line.Raw)
		if err != nil {
			// Unparseable data line, leave it untouched
			out.WriteString(line.Raw)
			out.WriteString("\n")
			continue
		}

		out.WriteString(proxyBase + "/proxy/" + proxyuri.Encode(segmentURL))
		out.WriteString("\n")
	}
	return out.String()
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {

	logger.Infof("Fetching playlist from: %s", s.config.StreamURL)

	manifest, resp, err := s.fetchSessionManifest()
	if err != nil {
		logger.Errorf("Error fetching playlist: %v", err)
		http.Error(w, fmt.Sprintf("Error fetching playlist: %v", err), http.StatusBadGateway)
		return
	}

	rewritten := rewriteManifest(manifest, proxyBaseURL(r))

	w.Header().Set("Content-Type", manifestContentType)
	w.Header().Set("Cache-Control", "no-cache")

	// Synthetic station headers for clients that read ICY metadata from the
	// playlist response
	if track, ok := manifest.NowPlaying(); ok {
		w.Header().Set("icy-name", s.config.StationName)
		w.Header().Set("icy-description", track.Artist+" - "+track.Title)
		w.Header().Set("icy-genre", s.config.Genre)
		w.Header().Set("icy-url", proxyBaseURL(r))
	}

	forwardSetCookies(w, resp.SetCookies)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rewritten))
}
