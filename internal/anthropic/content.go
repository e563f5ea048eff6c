package anthropic

import "encoding/json"

// BlockType discriminates content block variants on the wire.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockThinking   BlockType = "thinking"
	BlockDocument   BlockType = "document"
)

// CacheControl marks a block as a prompt-cache breakpoint.
type CacheControl struct {
	Type string `json:"type"` // "ephemeral"
}

func EphemeralCache() *CacheControl {
	return &CacheControl{Type: "ephemeral"}
}

// ImageSource carries image data, either inline base64 or by URL.
type ImageSource struct {
	Type      string `json:"type"` // "base64" | "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// DocumentSource carries PDF document data.
type DocumentSource struct {
	Type      string `json:"type"` // "base64" | "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// ContentBlock is one segment of a message: a text run, an image, a tool
// invocation or its result, a thinking trace, or a document. Type selects
// the variant; the remaining fields are populated per variant and omitted
// otherwise. Image and document sources share the "source" key, so it is
// kept raw here and shaped by the constructors.
type ContentBlock struct {
	Type         BlockType       `json:"type"`
	Text         string          `json:"text,omitempty"`
	CacheControl *CacheControl   `json:"cache_control,omitempty"`
	Source       json.RawMessage `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   []ContentBlock `json:"content,omitempty"`
	IsError   *bool          `json:"is_error,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// TextBlock returns a plain text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// TextBlockCached returns a text block with an ephemeral cache breakpoint.
func TextBlockCached(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text, CacheControl: EphemeralCache()}
}

// ImageFromURL returns an image block referencing a URL directly.
func ImageFromURL(url string) ContentBlock {
	src, _ := json.Marshal(ImageSource{Type: "url", URL: url})
	return ContentBlock{Type: BlockImage, Source: src}
}

// ImageFromBase64 returns an image block with inline base64 data.
func ImageFromBase64(mediaType, data string) ContentBlock {
	src, _ := json.Marshal(ImageSource{Type: "base64", MediaType: mediaType, Data: data})
	return ContentBlock{Type: BlockImage, Source: src}
}

// ToolUseBlock returns a tool invocation block. Input is the raw JSON
// argument object.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultText returns a tool result carrying a single text block.
func ToolResultText(toolUseID, text string) ContentBlock {
	return ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   []ContentBlock{TextBlock(text)},
	}
}

// ToolResultError returns a tool result flagged as an error.
func ToolResultError(toolUseID, message string) ContentBlock {
	isErr := true
	return ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   []ContentBlock{TextBlock(message)},
		IsError:   &isErr,
	}
}

// ThinkingBlock returns a thinking trace block.
func ThinkingBlock(thinking, signature string) ContentBlock {
	return ContentBlock{Type: BlockThinking, Thinking: thinking, Signature: signature}
}
