package streamserver

import "github.com/gorilla/mux"

func (s *Server) registerRoutes(r *mux.Router) *mux.Router {
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/health", s.handleHealthCheck).Methods("GET")
	r.HandleFunc("/stream.m3u", s.handleStreamM3U).Methods("GET")
	r.HandleFunc("/stream-icecast.m3u", s.handleIcecastM3U).Methods("GET")
	r.HandleFunc("/playlist.m3u8", s.handlePlaylist).Methods("GET")
	r.HandleFunc("/proxy/{scheme}/{rest:.*}", s.handleProxy).Methods("GET")
	r.HandleFunc("/icecast", s.handleIcecast).Methods("GET")
	r.HandleFunc("/nowplaying", s.handleNowPlaying).Methods("GET")
	return r
}
