package stream

import (
	"bytes"
	"strings"
)

const (
	dataPrefix   = "data: "
	eventPrefix  = "event: "
	doneSentinel = "[DONE]"
)

// DecodeLine classifies one SSE line and decodes its payload if it carries
// one. It returns (nil, nil) for blank lines, "event:" label lines (the type
// is always re-derived from the JSON payload itself), the [DONE] sentinel,
// and any unrecognized framing. A data line with an undecodable payload
// returns a *ProtocolError scoped to that line only.
func DecodeLine(line string) (*Event, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	if strings.HasPrefix(line, eventPrefix) {
		return nil, nil
	}

	if data, ok := strings.CutPrefix(line, dataPrefix); ok {
		if strings.TrimSpace(data) == doneSentinel {
			return nil, nil
		}
		return decodeEvent([]byte(data))
	}

	return nil, nil
}

// Frame is one data line lifted off the wire: the decoded event (nil for the
// [DONE] sentinel), the decode error if the payload was malformed, and the
// raw payload with frame accounting for storage.
type Frame struct {
	Seq      int    // ordinal of this data line within the stream
	Event    *Event // nil for [DONE] or when Err is set
	Err      error  // per-line decode failure, never fatal to the stream
	RawData  string // payload as received, without the data: prefix
	RawBytes int    // byte length of the frame including its newline
}

// Scanner frames a chunked SSE byte stream into decoded events. Partial
// lines are buffered across Feed calls, so chunk boundaries may fall
// anywhere. Not safe for concurrent use; one Scanner per stream.
type Scanner struct {
	buf []byte
	seq int
}

func NewScanner() *Scanner {
	return &Scanner{}
}

// Feed appends a chunk and returns the frames completed by it. Non-data
// lines (blanks, event labels) are consumed silently; every data line yields
// exactly one Frame, malformed payloads included.
func (s *Scanner) Feed(chunk []byte) []Frame {
	s.buf = append(s.buf, chunk...)
	var frames []Frame

	for {
		idx := bytes.IndexByte(s.buf, '\n')
		if idx == -1 {
			break
		}

		line := string(s.buf[:idx])
		s.buf = s.buf[idx+1:]
		line = strings.TrimRight(line, "\r")

		data, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}

		s.seq++
		frame := Frame{
			Seq:      s.seq,
			RawData:  data,
			RawBytes: len(line) + 1,
		}
		if strings.TrimSpace(data) != doneSentinel {
			frame.Event, frame.Err = decodeEvent([]byte(data))
		}
		frames = append(frames, frame)
	}

	return frames
}
