package m3umanifest

import (
	"io"
	"net/url"
	"strings"
)

// ManifestExt marks a data line as a reference to another manifest.
const ManifestExt = ".m3u8"

type LineKind int

const (
	// LineComment covers '#' lines that carry no track metadata, and blank lines.
	LineComment LineKind = iota
	// LineMetadata is an '#EXTINF:' line carrying track attributes.
	LineMetadata
	// LineSegment is a data line: a media segment or nested manifest reference.
	LineSegment
)

// Line is a single classified manifest line. Raw holds the original text and
// is emitted verbatim for Comment and Metadata lines.
type Line struct {
	Kind LineKind
	Raw  string
}

// Manifest is a parsed playlist document. The line order is preserved exactly
// as fetched; a rewrite produces a new document, the Manifest itself is never
// mutated.
type Manifest struct {
	Lines   []Line
	BaseURL *url.URL
}

// Decode classifies every line of a playlist document. base is the URL the
// document was fetched from, used later to resolve relative references.
func Decode(data string, base *url.URL) *Manifest {
	m := &Manifest{
		Lines:   make([]Line, 0),
		BaseURL: base,
	}

	// Data lines can be arbitrarily long (session URLs with large tokens), so
	// the document is split directly rather than scanned with a token limit.
	lines := strings.Split(data, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		kind := LineComment
		if strings.HasPrefix(line, "#EXTINF:") {
			kind = LineMetadata
		} else if len(line) > 0 && !strings.HasPrefix(line, "#") {
			kind = LineSegment
		}

		m.Lines = append(m.Lines, Line{Kind: kind, Raw: line})
	}

	return m
}

// DecodeFromReader reads a playlist document from r and decodes it.
func DecodeFromReader(r io.Reader, base *url.URL) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(string(data), base), nil
}

// ResolveURI turns a data line into an absolute URL, resolving relative
// references against the manifest base.
func (m *Manifest) ResolveURI(raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() || m.BaseURL == nil {
		return ref, nil
	}
	return m.BaseURL.ResolveReference(ref), nil
}

// Segments returns the raw data lines in document order.
func (m *Manifest) Segments() []string {
	segments := make([]string, 0)
	for _, line := range m.Lines {
		if line.Kind == LineSegment {
			segments = append(segments, line.Raw)
		}
	}
	return segments
}

// MediaSegments returns the data lines that are not nested manifest
// references, in document order.
func (m *Manifest) MediaSegments() []string {
	segments := make([]string, 0)
	for _, line := range m.Lines {
		if line.Kind == LineSegment && !IsManifestRef(line.Raw) {
			segments = append(segments, line.Raw)
		}
	}
	return segments
}

// HasMediaSegments reports whether the document carries at least one playable
// media segment line.
func (m *Manifest) HasMediaSegments() bool {
	return len(m.MediaSegments()) > 0
}

// ManifestRef returns the first data line referencing another manifest, or ""
// if the document has none.
func (m *Manifest) ManifestRef() string {
	for _, line := range m.Lines {
		if line.Kind == LineSegment && IsManifestRef(line.Raw) {
			return line.Raw
		}
	}
	return ""
}

// IsManifestRef reports whether a data line points at another manifest.
func IsManifestRef(line string) bool {
	return strings.Contains(line, ManifestExt)
}

func (m *Manifest) String() string {
	var result strings.Builder
	for _, line := range m.Lines {
		result.WriteString(line.Raw)
		result.WriteString("\n")
	}
	return result.String()
}
