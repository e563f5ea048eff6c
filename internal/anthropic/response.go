package anthropic

// StopReason classifies why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
	StopRefusal      StopReason = "refusal"
)

// Response is the complete envelope returned by the Messages API.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"` // "message"
	Role         string         `json:"role"` // "assistant"
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   StopReason     `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// Text returns all text block content concatenated in block order.
func (r *Response) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// Thinking returns all thinking block content concatenated in block order.
func (r *Response) Thinking() string {
	var out string
	for _, b := range r.Content {
		if b.Type == BlockThinking {
			out += b.Thinking
		}
	}
	return out
}

// HasToolUse reports whether any content block is a tool invocation.
func (r *Response) HasToolUse() bool {
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}

// ToolUses returns the tool invocation blocks in block order.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// ToolUseByID returns the tool invocation with the given id, if present.
func (r *Response) ToolUseByID(id string) (ContentBlock, bool) {
	for _, b := range r.Content {
		if b.Type == BlockToolUse && b.ID == id {
			return b, true
		}
	}
	return ContentBlock{}, false
}

func (r *Response) StoppedNaturally() bool  { return r.StopReason == StopEndTurn }
func (r *Response) StoppedForToolUse() bool { return r.StopReason == StopToolUse }
func (r *Response) HitMaxTokens() bool      { return r.StopReason == StopMaxTokens }
