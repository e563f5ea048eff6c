package processor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/pmehra/claude-relay/internal/jetstream"
	"github.com/pmehra/claude-relay/internal/storage"
	"github.com/pmehra/claude-relay/internal/stream"
)

type captureWriter struct {
	jobs []storage.WriteJob
}

func (c *captureWriter) Enqueue(job storage.WriteJob) {
	c.jobs = append(c.jobs, job)
}

func TestStreamSessionLifecycle(t *testing.T) {
	t.Parallel()

	w := &captureWriter{}
	p := New(w)
	id := uuid.New().String()

	sse := "event: message_start\n" +
		"data: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_01\",\"type\":\"message\",\"role\":\"assistant\",\"content\":[],\"model\":\"claude-sonnet-4-20250514\",\"usage\":{\"input_tokens\":9,\"output_tokens\":1}}}\n\n" +
		"data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\",\"text\":\"\"}}\n\n" +
		"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello\"}}\n\n" +
		"data: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"input_tokens\":9,\"output_tokens\":4}}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"

	// Chunk boundary in the middle of a line on purpose.
	half := len(sse) / 2
	p.handle(&nats.Msg{Subject: jetstream.ChunkSubject(id), Data: []byte(sse[:half])})
	p.handle(&nats.Msg{Subject: jetstream.ChunkSubject(id), Data: []byte(sse[half:])})

	if len(w.jobs) != 0 {
		t.Fatalf("jobs enqueued before done marker: %d", len(w.jobs))
	}

	p.handle(&nats.Msg{Subject: jetstream.DoneSubject(id), Data: []byte(`{"ts":1}`)})

	// One batch of SSE rows plus one completion record.
	if len(w.jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(w.jobs))
	}

	p.mu.Lock()
	remaining := len(p.sessions)
	p.mu.Unlock()
	if remaining != 0 {
		t.Errorf("sessions not reaped: %d", remaining)
	}

	// A second done marker for the same id is a no-op.
	p.handle(&nats.Msg{Subject: jetstream.DoneSubject(id), Data: nil})
	if len(w.jobs) != 2 {
		t.Errorf("duplicate done marker enqueued jobs: %d", len(w.jobs))
	}
}

func TestCompletionFromAccumulator(t *testing.T) {
	t.Parallel()

	acc := stream.NewAccumulator()
	for _, line := range []string{
		`data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","usage":{"input_tokens":9,"output_tokens":1}}}`,
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_01","name":"search"}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{}"}}`,
		`data: {"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"input_tokens":9,"output_tokens":4,"cache_read_input_tokens":2}}`,
	} {
		ev, err := stream.DecodeLine(line)
		if err != nil {
			t.Fatalf("DecodeLine(%q): %v", line, err)
		}
		acc.Process(ev)
	}

	id := uuid.New()
	ts := time.Now()
	rec := completionFromAccumulator(id, ts, acc)

	if rec.MessageID != "msg_01" || rec.Model != "claude-sonnet-4-20250514" {
		t.Errorf("identity = %q / %q", rec.MessageID, rec.Model)
	}
	if rec.StopReason != "tool_use" || rec.Truncated {
		t.Errorf("stop = %q truncated = %v", rec.StopReason, rec.Truncated)
	}
	if rec.OutputTokens != 4 || rec.CacheReadTokens != 2 {
		t.Errorf("usage = %+v", rec)
	}
	if len(rec.ToolUseNames) != 1 || rec.ToolUseNames[0] != "search" {
		t.Errorf("tool uses = %v", rec.ToolUseNames)
	}
}

func TestCompletionMarksTruncation(t *testing.T) {
	t.Parallel()

	acc := stream.NewAccumulator()
	ev, err := stream.DecodeLine(`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"cut of"}}`)
	if err != nil {
		t.Fatal(err)
	}
	acc.Process(ev)

	rec := completionFromAccumulator(uuid.New(), time.Now(), acc)
	if !rec.Truncated {
		t.Error("stream without message_delta must be marked truncated")
	}
	if rec.TextChars != len("cut of") {
		t.Errorf("text chars = %d", rec.TextChars)
	}
}

func TestFrameType(t *testing.T) {
	t.Parallel()

	s := stream.NewScanner()
	frames := s.Feed([]byte("data: {\"type\":\"ping\"}\ndata: {oops\ndata: [DONE]\n"))
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	want := []string{"ping", "malformed", "done"}
	for i, f := range frames {
		if got := frameType(f); got != want[i] {
			t.Errorf("frame %d type = %q, want %q", i, got, want[i])
		}
	}
}

func TestProcessNonStream(t *testing.T) {
	t.Parallel()

	w := &captureWriter{}
	p := New(w)

	body := `{
		"id": "msg_02",
		"type": "message",
		"role": "assistant",
		"content": [{"type":"text","text":"Hi"}],
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "end_turn",
		"usage": {"input_tokens":3,"output_tokens":2}
	}`
	p.ProcessNonStream(uuid.New(), time.Now(), []byte(body))
	if len(w.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(w.jobs))
	}

	p.ProcessNonStream(uuid.New(), time.Now(), []byte("not json"))
	p.ProcessNonStream(uuid.New(), time.Now(), []byte(`{"usage":{"input_tokens":1}}`))
	if len(w.jobs) != 1 {
		t.Errorf("unparsable bodies enqueued jobs: %d", len(w.jobs))
	}
}
