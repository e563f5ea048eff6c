// Package stream decodes the Messages API server-sent-event protocol and
// reconstructs a complete response from the incremental event sequence.
//
// The package is transport-free: callers read lines or chunks off the wire
// themselves and feed them to DecodeLine or Scanner, then reduce the decoded
// events with an Accumulator. One Accumulator per logical response.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/pmehra/claude-relay/internal/anthropic"
)

// EventType discriminates stream event variants.
type EventType string

const (
	EventMessageStart      EventType = "message_start"
	EventContentBlockStart EventType = "content_block_start"
	EventContentBlockDelta EventType = "content_block_delta"
	EventContentBlockStop  EventType = "content_block_stop"
	EventMessageDelta      EventType = "message_delta"
	EventMessageStop       EventType = "message_stop"
	EventPing              EventType = "ping"
	EventError             EventType = "error"
)

// DeltaType discriminates incremental update variants within a content block.
type DeltaType string

const (
	DeltaText      DeltaType = "text_delta"
	DeltaInputJSON DeltaType = "input_json_delta"
	DeltaThinking  DeltaType = "thinking_delta"
	DeltaSignature DeltaType = "signature_delta"
)

// Delta is one incremental update scoped to a single content block.
type Delta struct {
	Type        DeltaType `json:"type"`
	Text        string    `json:"text,omitempty"`
	PartialJSON string    `json:"partial_json,omitempty"`
	Thinking    string    `json:"thinking,omitempty"`
	Signature   string    `json:"signature,omitempty"`
}

// MessageDelta carries the terminal stop metadata. StopReason is a pointer
// because a message_delta may omit it (usage-only updates must not clear a
// previously recorded stop reason).
type MessageDelta struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// Event is one decoded unit of the stream. Type selects the variant; only
// that variant's payload fields are populated.
type Event struct {
	Type EventType

	// message_start
	Message *anthropic.Response

	// content_block_start / content_block_delta / content_block_stop
	Index        int
	ContentBlock *anthropic.ContentBlock
	Delta        *Delta

	// message_delta
	MessageDelta *MessageDelta
	Usage        *anthropic.Usage

	// error
	Error *anthropic.ErrorDetail
}

// ProtocolError reports a data line whose payload could not be decoded into
// a known event. It poisons nothing: the caller may skip the line or abort.
type ProtocolError struct {
	Data string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("stream: malformed event payload: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// wireEvent is the first decode phase: the discriminator plus every payload
// field kept raw. "delta" is shared by content_block_delta and message_delta
// with different shapes, so it is shaped in the second phase.
type wireEvent struct {
	Type         string                  `json:"type"`
	Message      json.RawMessage         `json:"message"`
	Index        int                     `json:"index"`
	ContentBlock json.RawMessage         `json:"content_block"`
	Delta        json.RawMessage         `json:"delta"`
	Usage        *anthropic.Usage        `json:"usage"`
	Error        *anthropic.ErrorDetail  `json:"error"`
}

func decodeEvent(data []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &ProtocolError{Data: string(data), Err: err}
	}

	ev := &Event{Type: EventType(w.Type), Index: w.Index}

	switch ev.Type {
	case EventMessageStart:
		var msg anthropic.Response
		if err := json.Unmarshal(w.Message, &msg); err != nil {
			return nil, &ProtocolError{Data: string(data), Err: fmt.Errorf("message_start envelope: %w", err)}
		}
		ev.Message = &msg

	case EventContentBlockStart:
		var block anthropic.ContentBlock
		if err := json.Unmarshal(w.ContentBlock, &block); err != nil {
			return nil, &ProtocolError{Data: string(data), Err: fmt.Errorf("content_block_start block: %w", err)}
		}
		ev.ContentBlock = &block

	case EventContentBlockDelta:
		var d Delta
		if err := json.Unmarshal(w.Delta, &d); err != nil {
			return nil, &ProtocolError{Data: string(data), Err: fmt.Errorf("content_block_delta delta: %w", err)}
		}
		ev.Delta = &d

	case EventContentBlockStop:
		// index only

	case EventMessageDelta:
		var md MessageDelta
		if len(w.Delta) > 0 {
			if err := json.Unmarshal(w.Delta, &md); err != nil {
				return nil, &ProtocolError{Data: string(data), Err: fmt.Errorf("message_delta delta: %w", err)}
			}
		}
		ev.MessageDelta = &md
		ev.Usage = w.Usage

	case EventMessageStop, EventPing:
		// no payload

	case EventError:
		ev.Error = w.Error

	default:
		return nil, &ProtocolError{Data: string(data), Err: fmt.Errorf("unknown event type %q", w.Type)}
	}

	return ev, nil
}
