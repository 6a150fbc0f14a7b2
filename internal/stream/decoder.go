package stream

import (
	"bytes"
	"strings"
)

// frame is one decoded SSE block: the event name and the data lines joined
// with newlines. Per the SSE convention, a block without an explicit
// "event:" line carries the default name "message".
type frame struct {
	name string
	data string
}

// decoder reassembles SSE frames from an arbitrarily chunked byte stream.
// Bytes are buffered until a complete "\n\n"-terminated block is available,
// so frames split anywhere - including mid-delimiter or mid-rune - decode
// identically to frames that arrive whole.
type decoder struct {
	buf []byte
}

// feed appends a chunk and returns all frames completed by it, in wire order.
func (d *decoder) feed(p []byte) []frame {
	d.buf = append(d.buf, p...)

	var frames []frame
	for {
		i := bytes.Index(d.buf, frameDelim)
		if i < 0 {
			break
		}
		raw := d.buf[:i]
		d.buf = d.buf[i+len(frameDelim):]
		if f, ok := parseFrame(raw); ok {
			frames = append(frames, f)
		}
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames
}

var frameDelim = []byte("\n\n")

func parseFrame(raw []byte) (frame, bool) {
	f := frame{name: "message"}
	var dataLines []string
	seen := false

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case line == "" || strings.HasPrefix(line, ":"):
			// comment / keepalive line
		case strings.HasPrefix(line, "event:"):
			f.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			seen = true
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			dataLines = append(dataLines, strings.TrimPrefix(v, " "))
			seen = true
		}
	}
	f.data = strings.Join(dataLines, "\n")
	return f, seen
}
