package anthropic

import (
	"encoding/json"
	"strings"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage returns a user turn with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage returns an assistant turn with a single text block.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// SystemBlock is one block of a structured system prompt.
type SystemBlock struct {
	Type         string        `json:"type"` // "text"
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ToolChoice configures how the model selects tools.
type ToolChoice struct {
	Type string `json:"type"` // "auto" | "any" | "tool" | "none"
	Name string `json:"name,omitempty"`
}

func ToolChoiceAuto() *ToolChoice          { return &ToolChoice{Type: "auto"} }
func ToolChoiceAny() *ToolChoice           { return &ToolChoice{Type: "any"} }
func ToolChoiceNone() *ToolChoice          { return &ToolChoice{Type: "none"} }
func ToolChoiceTool(name string) *ToolChoice { return &ToolChoice{Type: "tool", Name: name} }

// Metadata is optional request metadata.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// ThinkingConfig enables extended thinking with a token budget.
type ThinkingConfig struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// Request is the Messages API request body. System is kept raw because the
// wire format accepts either a plain string or a block array; use SetSystem
// or SetSystemBlocks when building requests by hand.
type Request struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	MaxTokens     int             `json:"max_tokens"`
	System        json.RawMessage `json:"system,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
}

// NewRequest returns a request with the required fields set.
func NewRequest(model string, maxTokens int) *Request {
	return &Request{Model: model, MaxTokens: maxTokens}
}

// User appends a user text turn.
func (r *Request) User(text string) *Request {
	r.Messages = append(r.Messages, UserMessage(text))
	return r
}

// Assistant appends an assistant text turn.
func (r *Request) Assistant(text string) *Request {
	r.Messages = append(r.Messages, AssistantMessage(text))
	return r
}

// Add appends an arbitrary message.
func (r *Request) Add(m Message) *Request {
	r.Messages = append(r.Messages, m)
	return r
}

// ToolResult appends a user turn carrying a tool result.
func (r *Request) ToolResult(toolUseID, text string) *Request {
	r.Messages = append(r.Messages, Message{
		Role:    RoleUser,
		Content: []ContentBlock{ToolResultText(toolUseID, text)},
	})
	return r
}

// ToolError appends a user turn carrying a failed tool result.
func (r *Request) ToolError(toolUseID, message string) *Request {
	r.Messages = append(r.Messages, Message{
		Role:    RoleUser,
		Content: []ContentBlock{ToolResultError(toolUseID, message)},
	})
	return r
}

// SetSystem sets the system prompt as a plain string.
func (r *Request) SetSystem(text string) *Request {
	raw, _ := json.Marshal(text)
	r.System = raw
	return r
}

// SetSystemBlocks sets a structured system prompt.
func (r *Request) SetSystemBlocks(blocks ...SystemBlock) *Request {
	raw, _ := json.Marshal(blocks)
	r.System = raw
	return r
}

// Validate checks the request the way the API would reject it.
func (r *Request) Validate() error {
	if r.Model == "" {
		return &ValidationError{Field: "model", Reason: "required"}
	}
	if len(r.Messages) == 0 {
		return &ValidationError{Field: "messages", Reason: "at least one message required"}
	}
	if r.MaxTokens <= 0 {
		return &ValidationError{Field: "max_tokens", Reason: "must be greater than 0"}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 1) {
		return &ValidationError{Field: "temperature", Reason: "must be between 0.0 and 1.0"}
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return &ValidationError{Field: "top_p", Reason: "must be between 0.0 and 1.0"}
	}
	return nil
}

// RequestSummary is the subset of an incoming request body the relay records.
type RequestSummary struct {
	Model                string
	SystemPrompt         string
	MaxTokens            int
	Temperature          *float64
	TopP                 *float64
	MessageCount         int
	ToolCount            int
	ThinkingBudgetTokens int
	Stream               bool
}

// ParseSummary extracts recording fields from a raw request body. It is
// deliberately lenient: a body that fails to parse yields a zero summary.
func ParseSummary(body []byte) RequestSummary {
	var req struct {
		Model       string            `json:"model"`
		Messages    []json.RawMessage `json:"messages"`
		System      json.RawMessage   `json:"system"`
		MaxTokens   int               `json:"max_tokens"`
		Temperature *float64          `json:"temperature"`
		TopP        *float64          `json:"top_p"`
		Stream      bool              `json:"stream"`
		Tools       []json.RawMessage `json:"tools"`
		Thinking    *ThinkingConfig   `json:"thinking"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return RequestSummary{}
	}

	var budget int
	if req.Thinking != nil {
		budget = req.Thinking.BudgetTokens
	}

	return RequestSummary{
		Model:                req.Model,
		SystemPrompt:         extractSystemPrompt(req.System),
		MaxTokens:            req.MaxTokens,
		Temperature:          req.Temperature,
		TopP:                 req.TopP,
		MessageCount:         len(req.Messages),
		ToolCount:            len(req.Tools),
		ThinkingBudgetTokens: budget,
		Stream:               req.Stream,
	}
}

// extractSystemPrompt handles both the string and the block-array form.
func extractSystemPrompt(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []SystemBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	return strings.Join(texts, "\n")
}
