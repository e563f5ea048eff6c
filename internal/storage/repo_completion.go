package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompletionRecord is the reconstructed outcome of one response: identity,
// token usage, stop metadata, and content size. Truncated marks streams
// that closed without ever delivering a stop reason.
type CompletionRecord struct {
	RequestID           uuid.UUID
	Timestamp           time.Time
	MessageID           string
	Model               string
	StopReason          string
	StopSequence        string
	InputTokens         int
	OutputTokens        int
	CacheReadTokens     int
	CacheCreationTokens int
	TextChars           int
	ThinkingChars       int
	ToolUseNames        []string
	Truncated           bool
}

func InsertCompletionJob(c *CompletionRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		var toolUses []byte
		if len(c.ToolUseNames) > 0 {
			toolUses, _ = json.Marshal(c.ToolUseNames)
		}
		total := c.InputTokens + c.OutputTokens + c.CacheReadTokens + c.CacheCreationTokens

		_, err := pool.Exec(ctx, `
			INSERT INTO completions (
				request_id, ts, message_id, model, stop_reason, stop_sequence,
				input_tokens, output_tokens, cache_read_tokens,
				cache_creation_tokens, total_tokens, text_chars,
				thinking_chars, tool_uses, truncated
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			c.RequestID, c.Timestamp, nilIfEmpty(c.MessageID), nilIfEmpty(c.Model),
			nilIfEmpty(c.StopReason), nilIfEmpty(c.StopSequence),
			c.InputTokens, c.OutputTokens, c.CacheReadTokens,
			c.CacheCreationTokens, total, c.TextChars,
			c.ThinkingChars, nilIfEmptyBytes(toolUses), c.Truncated,
		)
		return err
	})
}
