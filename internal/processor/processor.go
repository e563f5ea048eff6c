// Package processor reconstructs proxied responses off the hot path. Chunks
// republished by the proxy arrive via JetStream; each request gets its own
// scanner and accumulator, and the outcome is persisted when the done marker
// arrives.
package processor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/pmehra/claude-relay/internal/anthropic"
	"github.com/pmehra/claude-relay/internal/jetstream"
	"github.com/pmehra/claude-relay/internal/storage"
	"github.com/pmehra/claude-relay/internal/stream"
	"github.com/rs/zerolog/log"
)

// Enqueuer is the write side of the storage batch writer.
type Enqueuer interface {
	Enqueue(job storage.WriteJob)
}

type Processor struct {
	writer Enqueuer

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the in-flight reconstruction state for one request's stream.
type session struct {
	scanner *stream.Scanner
	acc     *stream.Accumulator
	rows    []storage.SSEEventRow
	started time.Time
}

func New(writer Enqueuer) *Processor {
	return &Processor{
		writer:   writer,
		sessions: make(map[string]*session),
	}
}

// StartConsumer subscribes to the chunk stream and blocks until the context
// is cancelled.
func (p *Processor) StartConsumer(ctx context.Context, js nats.JetStreamContext) {
	sub, err := js.Subscribe(jetstream.SubjectPrefix+">", p.handle, nats.AckExplicit())
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to chunk stream")
		return
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Warn().Err(err).Msg("chunk subscription drain failed")
	}
}

func (p *Processor) handle(msg *nats.Msg) {
	defer msg.Ack()

	requestID, done, ok := jetstream.ParseSubject(msg.Subject)
	if !ok {
		return
	}

	if done {
		p.finish(requestID, msg.Data)
		return
	}
	p.feed(requestID, msg.Data)
}

// feed runs a chunk through the request's scanner and accumulator.
func (p *Processor) feed(requestID string, chunk []byte) {
	p.mu.Lock()
	s := p.sessions[requestID]
	if s == nil {
		s = &session{
			scanner: stream.NewScanner(),
			acc:     stream.NewAccumulator(),
			started: time.Now(),
		}
		p.sessions[requestID] = s
	}
	p.mu.Unlock()

	for _, frame := range s.scanner.Feed(chunk) {
		s.rows = append(s.rows, storage.SSEEventRow{
			Index:    frame.Seq,
			Type:     frameType(frame),
			DataJSON: frame.RawData,
			RawBytes: frame.RawBytes,
		})
		if frame.Err != nil {
			log.Warn().Err(frame.Err).Str("request_id", requestID).Msg("malformed SSE frame")
			continue
		}
		s.acc.Process(frame.Event)
	}
}

// finish persists the frames and the reconstructed completion for a request.
func (p *Processor) finish(requestID string, marker []byte) {
	p.mu.Lock()
	s := p.sessions[requestID]
	delete(p.sessions, requestID)
	p.mu.Unlock()

	if s == nil {
		return
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		log.Warn().Str("request_id", requestID).Msg("unparsable request id on done marker")
		return
	}

	ts := s.started
	var m struct {
		TS int64 `json:"ts"`
	}
	if err := json.Unmarshal(marker, &m); err == nil && m.TS > 0 {
		ts = time.Unix(0, m.TS)
	}

	if len(s.rows) > 0 {
		p.writer.Enqueue(storage.InsertSSEEventsJob(id, ts, s.rows))
	}

	rec := completionFromAccumulator(id, ts, s.acc)
	p.writer.Enqueue(storage.InsertCompletionJob(rec))

	if detail := s.acc.Err(); detail != nil {
		log.Warn().
			Str("request_id", requestID).
			Str("error_type", detail.Type).
			Str("error_message", detail.Message).
			Msg("stream carried an error event")
	}

	log.Debug().
		Str("request_id", requestID).
		Int("sse_events", len(s.rows)).
		Str("model", rec.Model).
		Str("stop_reason", rec.StopReason).
		Bool("truncated", rec.Truncated).
		Msg("stream reconstruction complete")
}

func frameType(f stream.Frame) string {
	switch {
	case f.Err != nil:
		return "malformed"
	case f.Event == nil:
		return "done"
	default:
		return string(f.Event.Type)
	}
}

func completionFromAccumulator(id uuid.UUID, ts time.Time, acc *stream.Accumulator) *storage.CompletionRecord {
	rec := &storage.CompletionRecord{
		RequestID:     id,
		Timestamp:     ts,
		MessageID:     acc.ID(),
		Model:         acc.Model(),
		StopReason:    acc.StopReason(),
		StopSequence:  acc.StopSequence(),
		TextChars:     len(acc.Text()),
		ThinkingChars: len(acc.Thinking()),
		Truncated:     !acc.IsComplete(),
	}
	if u := acc.Usage(); u != nil {
		rec.InputTokens = u.InputTokens
		rec.OutputTokens = u.OutputTokens
		rec.CacheReadTokens = u.CacheReadInputTokens
		rec.CacheCreationTokens = u.CacheCreationInputTokens
	}
	for _, b := range acc.Blocks() {
		if b.Type == anthropic.BlockToolUse {
			rec.ToolUseNames = append(rec.ToolUseNames, b.Name)
		}
	}
	return rec
}

// ProcessNonStream records the completion of a buffered (non-streaming)
// response body. Bodies that do not parse as a response envelope are skipped.
func (p *Processor) ProcessNonStream(requestID uuid.UUID, ts time.Time, body []byte) {
	var resp anthropic.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return
	}
	if resp.Model == "" {
		return
	}

	rec := &storage.CompletionRecord{
		RequestID:           requestID,
		Timestamp:           ts,
		MessageID:           resp.ID,
		Model:               resp.Model,
		StopReason:          string(resp.StopReason),
		InputTokens:         resp.Usage.InputTokens,
		OutputTokens:        resp.Usage.OutputTokens,
		CacheReadTokens:     resp.Usage.CacheReadInputTokens,
		CacheCreationTokens: resp.Usage.CacheCreationInputTokens,
		TextChars:           len(resp.Text()),
		ThinkingChars:       len(resp.Thinking()),
	}
	if resp.StopSequence != nil {
		rec.StopSequence = *resp.StopSequence
	}
	for _, b := range resp.ToolUses() {
		rec.ToolUseNames = append(rec.ToolUseNames, b.Name)
	}
	p.writer.Enqueue(storage.InsertCompletionJob(rec))
}
