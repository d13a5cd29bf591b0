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
	"net/http"

	"github.com/a13labs/radiocast/pkg/logger"
)

const playerPlaylistContentType = "audio/x-mpegurl"

// handleStreamM3U serves the player playlist pointing at the rewritten HLS
// manifest, annotated with the current track when resolvable. Track lookup is
// best-effort only: failures degrade to a generic label.
func (s *Server) handleStreamM3U(w http.ResponseWriter, r *http.Request) {

	logger.Info("Serving M3U playlist")

	currentTrack := "Live Stream"
	if manifest, _, err := s.fetchSessionManifest(); err == nil {
		if track, ok := manifest.NowPlaying(); ok {
			currentTrack = track.Artist + " - " + track.Title
		}
	}

	body := fmt.Sprintf("#EXTM3U\n#EXTINF:-1 tvg-logo=\"\" radio=\"true\",%s - %s\n%s/playlist.m3u8\n",
		s.config.StationName, currentTrack, proxyBaseURL(r))

	w.Header().Set("Content-Type", playerPlaylistContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// handleIcecastM3U serves the playlist pointing legacy clients at the
// continuous ICY stream.
func (s *Server) handleIcecastM3U(w http.ResponseWriter, r *http.Request) {

	logger.Info("Serving Icecast M3U playlist")

	body := fmt.Sprintf("#EXTM3U\n#EXTINF:-1,%s\n%s/icecast\n",
		s.config.StationName, proxyBaseURL(r))

	w.Header().Set("Content-Type", playerPlaylistContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
