package anthropic

// Usage reports token consumption for a request/response pair.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// Total returns input + output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Cached returns the tokens served by or written to the prompt cache.
func (u Usage) Cached() int {
	return u.CacheCreationInputTokens + u.CacheReadInputTokens
}
