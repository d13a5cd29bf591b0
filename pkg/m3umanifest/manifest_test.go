package m3umanifest

import (
	"net/url"
	"strings"
	"testing"
)

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:1234
#EXTINF:9,title="One More Time",artist="Daft Punk",url="https://cdn.example.com/art.jpg"
media_1234.aac
#EXTINF:9,title="Asset Break",artist="Asset",url=""
media_1235.aac
#EXTINF:9,title="Around The World",artist="Daft Punk",url=""
https://origin.example.com/live/media_1236.aac`

func TestDecodeClassifiesLines(t *testing.T) {
	base, _ := url.Parse("https://origin.example.com/live/chunklist.m3u8")
	m := Decode(mediaPlaylist, base)

	expectedLines := 10
	if len(m.Lines) != expectedLines {
		t.Fatalf("Unexpected number of lines. Expected: %d, Got: %d", expectedLines, len(m.Lines))
	}

	// Assert that header and tag lines are comments
	for _, i := range []int{0, 1, 2, 3} {
		if m.Lines[i].Kind != LineComment {
			t.Errorf("Line %d should be a comment, got kind %d", i, m.Lines[i].Kind)
		}
	}

	// Assert that EXTINF lines are metadata
	for _, i := range []int{4, 6, 8} {
		if m.Lines[i].Kind != LineMetadata {
			t.Errorf("Line %d should be metadata, got kind %d", i, m.Lines[i].Kind)
		}
	}

	// Assert that data lines are segments
	for _, i := range []int{5, 7, 9} {
		if m.Lines[i].Kind != LineSegment {
			t.Errorf("Line %d should be a segment, got kind %d", i, m.Lines[i].Kind)
		}
	}
}

func TestSegments(t *testing.T) {
	m := Decode(mediaPlaylist, nil)

	segments := m.Segments()
	if len(segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(segments))
	}
	if segments[0] != "media_1234.aac" {
		t.Errorf("Unexpected first segment: %s", segments[0])
	}
	if !m.HasMediaSegments() {
		t.Error("Expected media segments to be present")
	}
}

func TestResolveURI(t *testing.T) {
	base, _ := url.Parse("https://origin.example.com/live/chunklist.m3u8?listeningSessionID=abc")
	m := Decode(mediaPlaylist, base)

	// Relative reference resolves against the manifest base
	resolved, err := m.ResolveURI("media_1234.aac")
	if err != nil {
		t.Fatalf("Failed to resolve URI: %v", err)
	}
	expected := "https://origin.example.com/live/media_1234.aac"
	if resolved.String() != expected {
		t.Errorf("Unexpected resolved URI. Expected: %s, Got: %s", expected, resolved.String())
	}

	// Absolute references pass through untouched
	resolved, err = m.ResolveURI("https://cdn.example.com/seg.aac?x=1")
	if err != nil {
		t.Fatalf("Failed to resolve URI: %v", err)
	}
	if resolved.String() != "https://cdn.example.com/seg.aac?x=1" {
		t.Errorf("Absolute URI was modified: %s", resolved.String())
	}
}

func TestManifestRef(t *testing.T) {
	master := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=135680,CODECS="mp4a.40.2"
chunklist_w123.m3u8?listeningSessionID=abc`

	m := Decode(master, nil)
	if m.HasMediaSegments() {
		t.Error("Master playlist should have no media segments")
	}
	if m.ManifestRef() != "chunklist_w123.m3u8?listeningSessionID=abc" {
		t.Errorf("Unexpected manifest reference: %s", m.ManifestRef())
	}

	media := Decode(mediaPlaylist, nil)
	if media.ManifestRef() != "" {
		t.Errorf("Media playlist should have no manifest reference, got %s", media.ManifestRef())
	}
}

func TestDecodeLongLines(t *testing.T) {
	// Session-qualified URLs can carry very large tokens; a line must never be
	// dropped or cut because of its length.
	longSegment := "https://origin.example.com/live/media_1.aac?token=" + strings.Repeat("x", 70*1024)
	doc := "#EXTM3U\n" + longSegment + "\nmedia_2.aac\n"

	m := Decode(doc, nil)

	if len(m.Lines) != 3 {
		t.Fatalf("Unexpected number of lines. Expected: 3, Got: %d", len(m.Lines))
	}
	if m.Lines[1].Raw != longSegment {
		t.Errorf("Long segment line was altered: length %d, expected %d", len(m.Lines[1].Raw), len(longSegment))
	}
	if m.Lines[2].Raw != "media_2.aac" {
		t.Errorf("Line after the long line was lost, got %q", m.Lines[2].Raw)
	}
}

func TestStringPreservesLines(t *testing.T) {
	m := Decode(mediaPlaylist, nil)
	expected := mediaPlaylist + "\n"
	if m.String() != expected {
		t.Errorf("Round-trip changed the document.\nExpected:\n%s\nGot:\n%s", expected, m.String())
	}
}
