package stream

import (
	"errors"
	"testing"
)

func TestDecodeLineIgnorableLines(t *testing.T) {
	t.Parallel()

	lines := []string{
		"",
		"   ",
		"event: message_start",
		"event: ping",
		"data: [DONE]",
		"data:  [DONE] ",
		": comment",
		"id: 42",
	}
	for _, line := range lines {
		ev, err := DecodeLine(line)
		if err != nil {
			t.Errorf("DecodeLine(%q) returned error: %v", line, err)
		}
		if ev != nil {
			t.Errorf("DecodeLine(%q) = %+v, want nil", line, ev)
		}
	}
}

func TestDecodeLinePing(t *testing.T) {
	t.Parallel()

	ev, err := DecodeLine(`data: {"type":"ping"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil || ev.Type != EventPing {
		t.Fatalf("got %+v, want ping event", ev)
	}
}

func TestDecodeLineTextDelta(t *testing.T) {
	t.Parallel()

	ev, err := DecodeLine(`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != EventContentBlockDelta {
		t.Fatalf("type = %q, want content_block_delta", ev.Type)
	}
	if ev.Index != 0 {
		t.Errorf("index = %d, want 0", ev.Index)
	}
	if ev.Delta == nil || ev.Delta.Type != DeltaText || ev.Delta.Text != "Hello" {
		t.Errorf("delta = %+v, want text_delta %q", ev.Delta, "Hello")
	}
}

func TestDecodeLineMessageStart(t *testing.T) {
	t.Parallel()

	line := `data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","usage":{"input_tokens":25,"output_tokens":1}}}`
	ev, err := DecodeLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != EventMessageStart {
		t.Fatalf("type = %q, want message_start", ev.Type)
	}
	if ev.Message == nil || ev.Message.ID != "msg_01" {
		t.Fatalf("message = %+v, want id msg_01", ev.Message)
	}
	if ev.Message.Usage.InputTokens != 25 {
		t.Errorf("input_tokens = %d, want 25", ev.Message.Usage.InputTokens)
	}
}

func TestDecodeLineMessageDelta(t *testing.T) {
	t.Parallel()

	line := `data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"input_tokens":5,"output_tokens":2}}`
	ev, err := DecodeLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.MessageDelta == nil || ev.MessageDelta.StopReason == nil || *ev.MessageDelta.StopReason != "end_turn" {
		t.Fatalf("message delta = %+v, want stop_reason end_turn", ev.MessageDelta)
	}
	if ev.Usage == nil || ev.Usage.OutputTokens != 2 {
		t.Errorf("usage = %+v, want output_tokens 2", ev.Usage)
	}
}

func TestDecodeLineError(t *testing.T) {
	t.Parallel()

	ev, err := DecodeLine(`data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != EventError {
		t.Fatalf("type = %q, want error", ev.Type)
	}
	if ev.Error == nil || ev.Error.Type != "overloaded_error" {
		t.Fatalf("error detail = %+v, want overloaded_error", ev.Error)
	}
}

func TestDecodeLineMalformedJSON(t *testing.T) {
	t.Parallel()

	ev, err := DecodeLine(`data: {"type":"ping"`)
	if ev != nil {
		t.Errorf("event = %+v, want nil", ev)
	}
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
}

func TestDecodeLineUnknownDiscriminator(t *testing.T) {
	t.Parallel()

	_, err := DecodeLine(`data: {"type":"content_block_teleport"}`)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
}

func TestScannerSplitsAcrossChunks(t *testing.T) {
	t.Parallel()

	s := NewScanner()

	frames := s.Feed([]byte("event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,"))
	if len(frames) != 0 {
		t.Fatalf("got %d frames before line completed, want 0", len(frames))
	}

	frames = s.Feed([]byte("\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi\"}}\n\n"))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Err != nil {
		t.Fatalf("frame error: %v", f.Err)
	}
	if f.Event == nil || f.Event.Type != EventContentBlockDelta {
		t.Fatalf("event = %+v, want content_block_delta", f.Event)
	}
	if f.Seq != 1 {
		t.Errorf("seq = %d, want 1", f.Seq)
	}
}

func TestScannerCRLFAndSentinel(t *testing.T) {
	t.Parallel()

	s := NewScanner()
	frames := s.Feed([]byte("data: {\"type\":\"ping\"}\r\ndata: [DONE]\r\n"))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Event == nil || frames[0].Event.Type != EventPing {
		t.Errorf("frame 0 = %+v, want ping", frames[0].Event)
	}
	if frames[1].Event != nil || frames[1].Err != nil {
		t.Errorf("sentinel frame = %+v err=%v, want empty frame", frames[1].Event, frames[1].Err)
	}
}

func TestScannerMalformedFrameIsContained(t *testing.T) {
	t.Parallel()

	s := NewScanner()
	frames := s.Feed([]byte("data: {broken\ndata: {\"type\":\"message_stop\"}\n"))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Err == nil {
		t.Error("first frame should carry a decode error")
	}
	if frames[1].Err != nil || frames[1].Event == nil || frames[1].Event.Type != EventMessageStop {
		t.Errorf("second frame = %+v err=%v, want message_stop", frames[1].Event, frames[1].Err)
	}
}

func TestScannerFrameAccounting(t *testing.T) {
	t.Parallel()

	line := "data: {\"type\":\"ping\"}\n"
	s := NewScanner()
	frames := s.Feed([]byte(line))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].RawBytes != len(line) {
		t.Errorf("raw bytes = %d, want %d", frames[0].RawBytes, len(line))
	}
	if frames[0].RawData != `{"type":"ping"}` {
		t.Errorf("raw data = %q", frames[0].RawData)
	}
}
