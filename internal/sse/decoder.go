// Package sse consumes the backend's server-sent-event streams: a stateful
// frame decoder that is safe against arbitrary chunk boundaries, and a
// consumer that folds inference frames into per-model results.
package sse

import (
	"bytes"
)

// Frame is one decoded SSE frame. Only the fields the backend emits are
// retained: an optional event name and the data payload.
type Frame struct {
	Event string
	Data  []byte
}

// Decoder reassembles SSE frames from a chunked byte stream. The trailing
// incomplete line is carried over between Write calls, never dropped or
// parsed twice.
type Decoder struct {
	buf bytes.Buffer
}

// Write appends a chunk and returns every frame completed by it.
func (d *Decoder) Write(p []byte) []Frame {
	d.buf.Write(p)
	data := d.buf.Bytes()

	var frames []Frame
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(data[:idx], []byte("\r"))
		data = data[idx+1:]
		if f, ok := parseLine(line); ok {
			frames = append(frames, f)
		}
	}

	// Keep the incomplete tail for the next chunk.
	d.buf.Reset()
	if len(data) > 0 {
		d.buf.Write(data)
	}
	return frames
}

// Flush returns a frame for any buffered final line that was not newline
// terminated. Call after the stream ends.
func (d *Decoder) Flush() []Frame {
	line := bytes.TrimSuffix(d.buf.Bytes(), []byte("\r"))
	d.buf.Reset()
	if f, ok := parseLine(line); ok {
		return []Frame{f}
	}
	return nil
}

// parseLine interprets one complete line. Blank lines (frame separators) and
// comment lines yield no frame.
func parseLine(line []byte) (Frame, bool) {
	if len(line) == 0 || line[0] == ':' {
		return Frame{}, false
	}
	if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		// Copy out of the carry-over buffer; its backing array is reused on
		// the next Write.
		return Frame{Data: append([]byte(nil), bytes.TrimSpace(rest)...)}, true
	}
	if rest, ok := bytes.CutPrefix(line, []byte("event:")); ok {
		return Frame{Event: string(bytes.TrimSpace(rest))}, true
	}
	return Frame{}, false
}
