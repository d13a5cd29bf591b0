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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a13labs/radiocast/pkg/icy"
	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/m3umanifest"
	"github.com/a13labs/radiocast/pkg/session"
	"github.com/a13labs/radiocast/pkg/upstream"
)

const (
	chunkSize    = 8192
	refreshDelay = 500 * time.Millisecond
	errorBackoff = time.Second
)

// errClientClosed marks a failed write to the downstream client. It is the
// only condition that ends a transcoder loop.
var errClientClosed = errors.New("client connection closed")

// transcoder converts the segmented HLS stream into one continuous byte
// stream for a single connected listener. Each connection owns its own
// transcoder and drives its own upstream polling; there is no fan-out.
type transcoder struct {
	config    Config
	sessions  *session.Store
	manifests *upstream.Client
	media     *http.Client
	sleep     func(time.Duration)
}

func (s *Server) newTranscoder() *transcoder {
	return &transcoder{
		config:    s.config,
		sessions:  s.sessions,
		manifests: s.client,
		media:     s.media,
		sleep:     time.Sleep,
	}
}

// run streams segments into w until a downstream write fails. Upstream
// trouble never ends the loop: the stream pauses through a backoff and
// resumes, since a connected listener must not see the stream close.
func (t *transcoder) run(w io.Writer, withMetadata bool) {

	out := w
	var meta *icy.Writer
	if withMetadata {
		meta = icy.NewWriter(w, icy.MetaInterval)
		out = meta
	}

	for {
		sessionURL, err := t.sessions.Resolve(t.config.StreamURL)
		if err != nil {
			logger.Errorf("Error in Icecast stream: %v", err)
			t.sleep(errorBackoff)
			continue
		}

		resp, err := t.manifests.Fetch(sessionURL, nil)
		if err != nil {
			logger.Errorf("Error in Icecast stream: %v", err)
			t.sessions.Invalidate(t.config.StreamURL)
			t.sleep(errorBackoff)
			continue
		}

		base, err := url.Parse(resp.FinalURL)
		if err != nil {
			logger.Errorf("Error in Icecast stream: %v", err)
			t.sleep(errorBackoff)
			continue
		}
		manifest := m3umanifest.Decode(string(resp.Body), base)

		// Unlike the playlist handler, a variant playlist is not treated as a
		// stale session here: the manifest simply yields no media segments and
		// the loop refetches after the refresh delay. The session is only
		// invalidated when a fetch actually fails.

		if meta != nil {
			meta.SetTitle(t.currentTitle(manifest))
		}

		for _, segment := range manifest.MediaSegments() {
			segmentURL, err := manifest.ResolveURI(segment)
			if err != nil {
				continue
			}

			if err := t.streamSegment(out, segmentURL.String()); err != nil {
				if errors.Is(err, errClientClosed) {
					logger.Debugf("Icecast client disconnected: %v", err)
					return
				}
				// Skip the failing segment and move on
				logger.Errorf("Error fetching segment %s: %v", segmentURL.String(), err)
				continue
			}
		}

		// Small delay before fetching the next playlist
		t.sleep(refreshDelay)
	}
}

// currentTitle extracts the now-playing label for metadata frames, falling
// back to a station placeholder when the manifest has no usable entry.
func (t *transcoder) currentTitle(manifest *m3umanifest.Manifest) string {
	if track, ok := manifest.NowPlaying(); ok {
		return track.Artist + " - " + track.Title
	}
	return t.config.StationName + " - Live Stream"
}

// streamSegment relays one segment into dst in fixed-size chunks. A write
// failure is wrapped in errClientClosed so the caller can tell a gone client
// from a failing origin.
func (t *transcoder) streamSegment(dst io.Writer, uri string) error {

	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	for key, value := range upstream.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := t.media.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http response code (%d)", resp.StatusCode)
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("%w: %v", errClientClosed, werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) handleIcecast(w http.ResponseWriter, r *http.Request) {

	logger.Info("Client connected to Icecast stream")

	withMetadata := r.Header.Get("Icy-MetaData") == "1"

	w.Header().Set("Content-Type", defaultSegmentContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "close")
	w.Header().Set("icy-name", s.config.StationName)
	w.Header().Set("icy-genre", s.config.Genre)
	w.Header().Set("icy-url", proxyBaseURL(r))
	w.Header().Set("icy-br", strconv.Itoa(s.config.Bitrate))
	w.Header().Set("icy-pub", "1")
	if withMetadata {
		w.Header().Set("icy-metaint", strconv.Itoa(icy.MetaInterval))
	}
	w.WriteHeader(http.StatusOK)

	s.newTranscoder().run(&flushWriter{w}, withMetadata)
}
