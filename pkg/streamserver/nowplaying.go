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
	"encoding/json"
	"net/http"

	"github.com/a13labs/radiocast/pkg/logger"
)

type nowPlayingResponse struct {
	Status  string  `json:"status"`
	Station string  `json:"station"`
	Title   string  `json:"title,omitempty"`
	Artist  string  `json:"artist,omitempty"`
	Artwork *string `json:"artwork,omitempty"`
	Album   string  `json:"album,omitempty"`
	Error   string  `json:"error,omitempty"`
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {

	w.Header().Set("Content-Type", "application/json")

	manifest, _, err := s.fetchSessionManifest()
	if err != nil {
		logger.Errorf("Error fetching now playing: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(nowPlayingResponse{
			Status:  "error",
			Station: s.config.StationName,
			Error:   err.Error(),
		})
		return
	}

	response := nowPlayingResponse{
		Status:  "ok",
		Station: s.config.StationName,
		Title:   "Live Stream",
		Artist:  s.config.StationName,
		Album:   s.config.StationName,
	}

	if track, ok := manifest.NowPlaying(); ok {
		response.Title = track.Title
		response.Artist = track.Artist
		if track.Artwork != "" {
			artwork := track.Artwork
			response.Artwork = &artwork
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
