package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRecord struct {
	ID                   uuid.UUID
	Timestamp            time.Time
	Method               string
	Path                 string
	StatusCode           int
	Success              bool
	ErrorMessage         string
	ResponseTimeMs       int
	IsStream             bool
	Model                string
	MessageCount         int
	ToolCount            int
	ThinkingBudgetTokens int
}

func InsertRequestJob(r *RequestRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO requests (
				id, ts, method, path, status_code, success, error_message,
				response_time_ms, is_stream, model, message_count, tool_count,
				thinking_budget_tokens
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			r.ID, r.Timestamp, r.Method, r.Path,
			r.StatusCode, r.Success, nilIfEmpty(r.ErrorMessage),
			r.ResponseTimeMs, r.IsStream, nilIfEmpty(r.Model),
			r.MessageCount, r.ToolCount, r.ThinkingBudgetTokens,
		)
		return err
	})
}

// PayloadExtras carries the parsed request fields stored alongside the raw
// bodies.
type PayloadExtras struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
	TopP         *float64
}

func InsertPayloadJob(requestID uuid.UUID, ts time.Time, reqHeaders, respHeaders map[string][]string, reqBody, respBody []byte, extras PayloadExtras) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		reqH, _ := json.Marshal(reqHeaders)
		respH, _ := json.Marshal(respHeaders)
		_, err := pool.Exec(ctx, `
			INSERT INTO request_payloads (
				request_id, ts, request_headers, request_body,
				response_headers, response_body, system_prompt,
				max_tokens, temperature, top_p
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			requestID, ts, reqH, nilIfEmptyBytes(reqBody),
			respH, nilIfEmptyBytes(respBody), nilIfEmpty(extras.SystemPrompt),
			extras.MaxTokens, extras.Temperature, extras.TopP,
		)
		return err
	})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nilIfEmptyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
