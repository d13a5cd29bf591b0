package m3umanifest

import (
	"strconv"
	"strings"
)

// AdvertisementMarker is the origin's convention for tagging commercial and
// station-ID entries in EXTINF metadata.
const AdvertisementMarker = "Asset"

// TrackMetadata holds the attributes of a single EXTINF entry.
type TrackMetadata struct {
	Duration int
	Title    string
	Artist   string
	Artwork  string
}

// IsAdvertisement reports whether the entry describes a commercial or
// station-ID rather than a playable track.
func (t TrackMetadata) IsAdvertisement() bool {
	return strings.Contains(t.Title, AdvertisementMarker) ||
		strings.Contains(t.Artist, AdvertisementMarker)
}

// ParseTrack extracts track metadata from an EXTINF line of the form
//
//	#EXTINF:duration,title="Song",artist="Artist",url="https://..."
//
// It returns false when the line carries no title or no artist.
func ParseTrack(line string) (TrackMetadata, bool) {
	if !strings.HasPrefix(line, "#EXTINF:") {
		return TrackMetadata{}, false
	}

	data := strings.TrimPrefix(line, "#EXTINF:")
	attrs := parseAttributes(data)

	track := TrackMetadata{
		Duration: parseDuration(data),
		Title:    attrs["title"],
		Artist:   attrs["artist"],
		Artwork:  attrs["url"],
	}

	if track.Title == "" || track.Artist == "" {
		return TrackMetadata{}, false
	}

	return track, true
}

// NowPlaying returns the first non-advertisement track of the manifest.
func (m *Manifest) NowPlaying() (TrackMetadata, bool) {
	for _, line := range m.Lines {
		if line.Kind != LineMetadata {
			continue
		}
		track, ok := ParseTrack(line.Raw)
		if !ok || track.IsAdvertisement() {
			continue
		}
		return track, true
	}
	return TrackMetadata{}, false
}

// parseAttributes scans key="value" pairs from EXTINF attribute data.
func parseAttributes(data string) map[string]string {
	attrs := make(map[string]string)

	inKey := true
	var key string
	var value string
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inKey {
			switch c {
			case ',', ' ':
				key = ""
			case '=':
				// value follows
			case '"':
				inKey = false
			default:
				key += string(c)
			}
			continue
		}
		if c == '"' {
			attrs[key] = value
			key = ""
			value = ""
			inKey = true
			continue
		}
		value += string(c)
	}

	return attrs
}

// parseDuration parses the duration prefix of the EXTINF data.
func parseDuration(data string) int {
	idx := strings.Index(data, ",")
	if idx == -1 {
		idx = len(data)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(data[:idx]), 64)
	if err != nil {
		return -1
	}
	return int(duration)
}
