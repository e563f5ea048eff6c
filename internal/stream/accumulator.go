package stream

import (
	"errors"
	"strings"

	"github.com/pmehra/claude-relay/internal/anthropic"
)

// ErrIncomplete is returned by Accumulator.Response when no message_delta
// carrying a stop reason has been observed.
var ErrIncomplete = errors.New("stream: response incomplete (no stop reason received)")

// Accumulator reduces an ordered event sequence into a reconstructed
// response. State only grows: nothing is rolled back, and a recorded stop
// reason is final. Process never fails; malformed payloads are rejected by
// the decoder before they get here, and error events are recorded as data.
//
// Not safe for concurrent use. One Accumulator per in-flight response;
// never share an instance across streams.
type Accumulator struct {
	id    string
	model string

	blocks []anthropic.ContentBlock

	// Cross-index views, in delta-arrival order. With multiple text blocks
	// interleaved, text is not necessarily the concatenation of the final
	// per-block text fields.
	text     strings.Builder
	thinking strings.Builder

	toolInputs map[string]*strings.Builder

	usage        *anthropic.Usage
	stopReason   *string
	stopSequence *string

	lastErr *anthropic.ErrorDetail
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		toolInputs: make(map[string]*strings.Builder),
	}
}

// Process applies one event to the accumulator. Nil events (as returned by
// DecodeLine for non-payload lines) are ignored.
func (a *Accumulator) Process(ev *Event) {
	if ev == nil {
		return
	}

	switch ev.Type {
	case EventMessageStart:
		if ev.Message != nil {
			if a.id == "" {
				a.id = ev.Message.ID
			}
			if a.model == "" {
				a.model = ev.Message.Model
			}
		}

	case EventContentBlockStart:
		if ev.Index < 0 || ev.ContentBlock == nil {
			return
		}
		// Pad with empty text blocks so the slot is addressable even when
		// earlier starts were never observed.
		for len(a.blocks) <= ev.Index {
			a.blocks = append(a.blocks, anthropic.ContentBlock{Type: anthropic.BlockText})
		}
		a.blocks[ev.Index] = *ev.ContentBlock

	case EventContentBlockDelta:
		a.applyDelta(ev.Index, ev.Delta)

	case EventContentBlockStop:
		// Logical completion point for one block; no state is kept per block.

	case EventMessageDelta:
		if ev.MessageDelta != nil {
			if ev.MessageDelta.StopReason != nil {
				a.stopReason = ev.MessageDelta.StopReason
			}
			if ev.MessageDelta.StopSequence != nil {
				a.stopSequence = ev.MessageDelta.StopSequence
			}
		}
		if ev.Usage != nil {
			u := *ev.Usage
			a.usage = &u
		}

	case EventMessageStop:
		// Confirmatory only; completion is recorded by message_delta.

	case EventPing:
		// Keep-alive.

	case EventError:
		// Recorded for post-hoc inspection; callers abort on their own
		// policy when they see the event.
		if ev.Error != nil {
			d := *ev.Error
			a.lastErr = &d
		}
	}
}

func (a *Accumulator) applyDelta(index int, d *Delta) {
	if d == nil {
		return
	}

	switch d.Type {
	case DeltaText:
		a.text.WriteString(d.Text)
		if index >= 0 && index < len(a.blocks) && a.blocks[index].Type == anthropic.BlockText {
			a.blocks[index].Text += d.Text
		}

	case DeltaInputJSON:
		// Fragments targeting a slot that is not a tool_use block are
		// dropped so malformed interleaving cannot corrupt other state.
		if index < 0 || index >= len(a.blocks) || a.blocks[index].Type != anthropic.BlockToolUse {
			return
		}
		id := a.blocks[index].ID
		b := a.toolInputs[id]
		if b == nil {
			b = &strings.Builder{}
			a.toolInputs[id] = b
		}
		b.WriteString(d.PartialJSON)

	case DeltaThinking:
		// Global view only; per-block thinking text is not reconciled.
		a.thinking.WriteString(d.Thinking)

	case DeltaSignature:
		// Terminal metadata, not needed for reconstruction.
	}
}

// ID returns the message id from message_start, or "" before one arrives.
func (a *Accumulator) ID() string { return a.id }

// Model returns the model from message_start, or "" before one arrives.
func (a *Accumulator) Model() string { return a.model }

// Text returns every text fragment seen so far, concatenated in arrival
// order across all block indices. Safe to call mid-stream.
func (a *Accumulator) Text() string { return a.text.String() }

// Thinking returns every thinking fragment seen so far in arrival order.
func (a *Accumulator) Thinking() string { return a.thinking.String() }

// Blocks returns the reconstructed content blocks. The slice is owned by
// the accumulator and remains live while the stream is being processed.
func (a *Accumulator) Blocks() []anthropic.ContentBlock { return a.blocks }

// ToolInput returns the partial JSON accumulated for a tool-use id.
func (a *Accumulator) ToolInput(id string) (string, bool) {
	b, ok := a.toolInputs[id]
	if !ok {
		return "", false
	}
	return b.String(), true
}

// ToolInputs returns a snapshot of all accumulated tool inputs by id.
func (a *Accumulator) ToolInputs() map[string]string {
	out := make(map[string]string, len(a.toolInputs))
	for id, b := range a.toolInputs {
		out[id] = b.String()
	}
	return out
}

// Usage returns the usage from the last message_delta, or nil.
func (a *Accumulator) Usage() *anthropic.Usage { return a.usage }

// StopReason returns the recorded stop reason, or "" while incomplete.
func (a *Accumulator) StopReason() string {
	if a.stopReason == nil {
		return ""
	}
	return *a.stopReason
}

// StopSequence returns the stop sequence that ended generation, if any.
func (a *Accumulator) StopSequence() string {
	if a.stopSequence == nil {
		return ""
	}
	return *a.stopSequence
}

// IsComplete reports whether a message_delta has recorded a stop reason.
// A transport that closes while this is false delivered a truncated stream.
func (a *Accumulator) IsComplete() bool { return a.stopReason != nil }

// Err returns the detail of the last error event seen on the stream, or nil.
func (a *Accumulator) Err() *anthropic.ErrorDetail { return a.lastErr }

// Response converts a complete accumulation into a final response envelope,
// filling each tool_use block's input from the assembled JSON fragments.
// It fails with ErrIncomplete if no stop reason was ever recorded.
func (a *Accumulator) Response() (*anthropic.Response, error) {
	if !a.IsComplete() {
		return nil, ErrIncomplete
	}

	blocks := make([]anthropic.ContentBlock, len(a.blocks))
	copy(blocks, a.blocks)
	for i := range blocks {
		if blocks[i].Type != anthropic.BlockToolUse {
			continue
		}
		if in, ok := a.ToolInput(blocks[i].ID); ok && in != "" {
			blocks[i].Input = []byte(in)
		}
	}

	resp := &anthropic.Response{
		ID:         a.id,
		Type:       "message",
		Role:       anthropic.RoleAssistant,
		Content:    blocks,
		Model:      a.model,
		StopReason: anthropic.StopReason(a.StopReason()),
	}
	if a.stopSequence != nil {
		resp.StopSequence = a.stopSequence
	}
	if a.usage != nil {
		resp.Usage = *a.usage
	}
	return resp, nil
}
