package streamserver

import (
	"fmt"
	"net/http"
)

const infoPage = `<html>
<head><title>%[1]s - Stream Proxy</title></head>
<body>
	<h1>%[1]s - Stream Proxy</h1>
	<p>This proxy server allows you to access the %[1]s radio stream.</p>

	<h2>Stream URLs</h2>

	<h3>HLS Streams (For VLC, Web Players)</h3>
	<ul>
		<li><strong>M3U Playlist:</strong> <a href="%[2]s/stream.m3u">%[2]s/stream.m3u</a></li>
		<li><strong>HLS Playlist:</strong> <a href="%[2]s/playlist.m3u8">%[2]s/playlist.m3u8</a></li>
	</ul>

	<h3>Icecast Stream (For TuneIn, Radio Apps)</h3>
	<ul>
		<li><strong>Icecast M3U:</strong> <a href="%[2]s/stream-icecast.m3u">%[2]s/stream-icecast.m3u</a></li>
		<li><strong>Direct Stream:</strong> <a href="%[2]s/icecast">%[2]s/icecast</a></li>
	</ul>
	<p><em>Use the Icecast URLs above for apps like TuneIn that require metadata support.</em></p>

	<h2>Usage</h2>
	<p><strong>For VLC/iTunes:</strong> Use the HLS M3U playlist URL<br>
	<strong>For TuneIn/Radio Apps:</strong> Use the Icecast M3U playlist URL</p>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, infoPage, s.config.StationName, proxyBaseURL(r))
}
