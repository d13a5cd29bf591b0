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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/m3umanifest"
	"github.com/a13labs/radiocast/pkg/proxyuri"
	"github.com/a13labs/radiocast/pkg/upstream"

	"github.com/elnormous/contenttype"
	"github.com/gorilla/mux"
)

// sessionQueryParam marks an origin URL as carrying a session identifier.
const sessionQueryParam = "listeningSessionID"

const defaultSegmentContentType = "audio/aac"

var supportedMediaTypes = []contenttype.MediaType{
	contenttype.NewMediaType("application/vnd.apple.mpegurl"),
	contenttype.NewMediaType("application/x-mpegurl"),
	contenttype.NewMediaType("audio/x-mpegurl"),
	contenttype.NewMediaType("audio/mpeg"),
	contenttype.NewMediaType("audio/aacp"),
	contenttype.NewMediaType("audio/aac"),
	contenttype.NewMediaType("audio/mp4"),
	contenttype.NewMediaType("audio/mp3"),
	contenttype.NewMediaType("audio/x-aac"),
	contenttype.NewMediaType("video/mp2t"),
	contenttype.NewMediaType("binary/octet-stream"),
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {

	vars := mux.Vars(r)

	origin, err := proxyuri.Decode(vars["scheme"], vars["rest"], r.URL.RawQuery)
	if err != nil {
		http.Error(w, "Invalid proxy path", http.StatusBadRequest)
		return
	}

	logger.Infof("Proxying: %s", origin.String())

	if strings.HasSuffix(origin.Path, m3umanifest.ManifestExt) {
		s.serveSubManifest(w, r, origin)
		return
	}

	s.serveSegment(w, r, origin)
}

// serveSubManifest fetches a nested manifest, breaks session redirect loops,
// and returns it rewritten for this proxy.
func (s *Server) serveSubManifest(w http.ResponseWriter, r *http.Request, origin *url.URL) {

	resp, err := s.client.Fetch(origin.String(), clientCookies(r))
	if err != nil {
		logger.Errorf("Error proxying stream: %v", err)
		http.Error(w, fmt.Sprintf("Error proxying stream: %v", err), http.StatusBadGateway)
		return
	}

	manifest, err := decodeManifest(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error proxying stream: %v", err), http.StatusBadGateway)
		return
	}

	// A manifest whose only data line is yet another session-qualified
	// manifest reference is a redirect loop. Strip the session query from the
	// requested URL and refetch once for a fresh stream.
	segments := manifest.Segments()
	if len(segments) == 1 && m3umanifest.IsManifestRef(segments[0]) &&
		strings.Contains(segments[0], sessionQueryParam) {

		logger.Warn("Detected playlist redirect loop, requesting fresh stream")

		stripped := *origin
		stripped.RawQuery = ""

		resp, err = s.client.Fetch(stripped.String(), nil)
		if err != nil {
			logger.Errorf("Error proxying stream: %v", err)
			http.Error(w, fmt.Sprintf("Error proxying stream: %v", err), http.StatusBadGateway)
			return
		}
		manifest, err = decodeManifest(resp)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error proxying stream: %v", err), http.StatusBadGateway)
			return
		}
	}

	rewritten := rewriteManifest(manifest, proxyBaseURL(r))

	w.Header().Set("Content-Type", manifestContentType)
	w.Header().Set("Cache-Control", "no-cache")
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

// serveSegment relays an audio segment from the origin, streaming the body in
// bounded chunks as it arrives.
func (s *Server) serveSegment(w http.ResponseWriter, r *http.Request, origin *url.URL) {

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, origin.String(), nil)
	if err != nil {
		http.Error(w, "Invalid proxy path", http.StatusBadRequest)
		return
	}
	for key, value := range upstream.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	for _, c := range r.Cookies() {
		req.AddCookie(c)
	}

	resp, err := s.media.Do(req)
	if err != nil {
		logger.Errorf("Error proxying stream: %v", err)
		http.Error(w, fmt.Sprintf("Error proxying stream: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		logger.Errorf("Error proxying stream: http response code (%d)", resp.StatusCode)
		http.Error(w, fmt.Sprintf("Error proxying stream: http response code (%d)", resp.StatusCode), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", segmentContentType(resp.Header.Get("Content-Type")))
	cacheControl := resp.Header.Get("Cache-Control")
	if cacheControl == "" {
		cacheControl = "no-cache"
	}
	w.Header().Set("Cache-Control", cacheControl)
	forwardSetCookies(w, resp.Header.Values("Set-Cookie"))

	w.WriteHeader(http.StatusOK)

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(&flushWriter{w}, resp.Body, buf); err != nil {
		logger.Debugf("Segment relay interrupted: %v", err)
	}
}

// segmentContentType normalizes the origin content type against the media
// types this proxy serves, defaulting to plain AAC audio.
func segmentContentType(origin string) string {
	if origin == "" {
		return defaultSegmentContentType
	}
	mediaType, _, err := contenttype.GetAcceptableMediaTypeFromHeader(origin, supportedMediaTypes)
	if err != nil {
		return defaultSegmentContentType
	}
	return mediaType.String()
}
