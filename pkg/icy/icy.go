package icy

import "io"

// Package icy implements the Icecast in-band metadata convention: the byte
// stream is cut every MetaInterval bytes and a metadata frame is inserted at
// the boundary. A frame is a single length byte (payload length in 16-byte
// blocks) followed by the payload padded with null bytes to the next multiple
// of 16.

// MetaInterval is the standard distance in bytes between metadata frames.
const MetaInterval = 16000

// maxPayload is the largest encodable payload (255 blocks of 16 bytes).
const maxPayload = 255 * 16

// StreamTitle formats a track label as an ICY metadata string.
func StreamTitle(title string) string {
	return "StreamTitle='" + title + "';"
}

// Frame encodes a metadata string as an ICY frame.
func Frame(meta string) []byte {
	payload := []byte(meta)
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}

	blocks := (len(payload) + 15) / 16

	frame := make([]byte, 1+blocks*16)
	frame[0] = byte(blocks)
	copy(frame[1:], payload)
	return frame
}

// Writer interleaves metadata frames into a byte stream at a fixed interval.
// The byte counter persists across Write calls, so frame boundaries are kept
// regardless of how the stream is chunked upstream.
type Writer struct {
	w        io.Writer
	interval int
	count    int
	meta     string
}

func NewWriter(w io.Writer, interval int) *Writer {
	return &Writer{
		w:        w,
		interval: interval,
	}
}

// SetTitle updates the metadata emitted at the next frame boundary.
func (mw *Writer) SetTitle(title string) {
	mw.meta = StreamTitle(title)
}

// Write relays p, inserting exactly one metadata frame each time the running
// byte count reaches the interval, splitting p mid-chunk when necessary. The
// returned count covers only bytes consumed from p.
func (mw *Writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		untilFrame := mw.interval - mw.count
		remaining := len(p) - written

		if untilFrame > remaining {
			n, err := mw.w.Write(p[written:])
			mw.count += n
			written += n
			if err != nil {
				return written, err
			}
			break
		}

		n, err := mw.w.Write(p[written : written+untilFrame])
		mw.count += n
		written += n
		if err != nil {
			return written, err
		}

		if _, err := mw.w.Write(Frame(mw.meta)); err != nil {
			return written, err
		}
		mw.count = 0
	}
	return written, nil
}
