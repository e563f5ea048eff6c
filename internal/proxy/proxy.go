// Package proxy is the relay's HTTP front: it forwards Messages API traffic
// upstream unchanged, streams responses straight back to the caller, and
// republishes the SSE bytes to JetStream for background reconstruction.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/pmehra/claude-relay/internal/anthropic"
	"github.com/pmehra/claude-relay/internal/config"
	"github.com/pmehra/claude-relay/internal/jetstream"
	"github.com/pmehra/claude-relay/internal/processor"
	"github.com/pmehra/claude-relay/internal/storage"
	"github.com/pmehra/claude-relay/internal/stream"
	"github.com/rs/zerolog/log"
)

// Handler is the recording reverse proxy.
type Handler struct {
	cfg       *config.Config
	client    *http.Client
	writer    *storage.BatchWriter
	processor *processor.Processor
	js        nats.JetStreamContext
}

func NewHandler(cfg *config.Config, writer *storage.BatchWriter, proc *processor.Processor, js nats.JetStreamContext) *Handler {
	return &Handler{
		cfg: cfg,
		client: &http.Client{
			// No timeout: streaming responses can be long-lived.
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		writer:    writer,
		processor: proc,
		js:        js,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New()
	ts := time.Now()

	var reqBody []byte
	if r.Body != nil {
		var err error
		reqBody, err = io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("failed to read request body")
			http.Error(w, "failed to read request body", http.StatusBadGateway)
			return
		}
	}

	summary := anthropic.ParseSummary(reqBody)

	targetURL := buildTargetURL(h.cfg.AnthropicBaseURL, r.URL.Path, r.URL.RawQuery)
	upstreamReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, bytes.NewReader(reqBody))
	if err != nil {
		log.Error().Err(err).Msg("failed to create upstream request")
		http.Error(w, "failed to create upstream request", http.StatusBadGateway)
		return
	}
	upstreamReq.Header = prepareUpstreamHeaders(r.Header, h.cfg.AnthropicAPIKey)

	resp, err := h.client.Do(upstreamReq)
	if err != nil {
		log.Error().Err(err).Str("url", targetURL).Msg("upstream request failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)

		h.writer.Enqueue(storage.InsertRequestJob(&storage.RequestRecord{
			ID:             requestID,
			Timestamp:      ts,
			Method:         r.Method,
			Path:           r.URL.Path,
			StatusCode:     http.StatusBadGateway,
			Success:        false,
			ErrorMessage:   err.Error(),
			ResponseTimeMs: int(time.Since(ts).Milliseconds()),
		}))
		return
	}
	defer resp.Body.Close()

	isStreaming := isStreamingResponse(resp)

	h.writer.Enqueue(storage.InsertRequestJob(&storage.RequestRecord{
		ID:                   requestID,
		Timestamp:            ts,
		Method:               r.Method,
		Path:                 r.URL.Path,
		StatusCode:           resp.StatusCode,
		Success:              resp.StatusCode >= 200 && resp.StatusCode < 400,
		ResponseTimeMs:       int(time.Since(ts).Milliseconds()),
		IsStream:             isStreaming,
		Model:                summary.Model,
		MessageCount:         summary.MessageCount,
		ToolCount:            summary.ToolCount,
		ThinkingBudgetTokens: summary.ThinkingBudgetTokens,
	}))

	for k, vv := range prepareClientHeaders(resp.Header) {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	if isStreaming {
		h.handleStreaming(w, resp, requestID, ts, r, reqBody, summary)
	} else {
		h.handleNonStreaming(w, resp, requestID, ts, r, reqBody, summary)
	}

	log.Info().
		Str("request_id", requestID.String()).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", resp.StatusCode).
		Bool("stream", isStreaming).
		Dur("duration", time.Since(ts)).
		Msg("proxied request")
}

// handleStreaming copies the upstream body to the client while a tee feeds
// the same bytes to a goroutine that republishes them for the recorder.
func (h *Handler) handleStreaming(w http.ResponseWriter, resp *http.Response, requestID uuid.UUID, ts time.Time, origReq *http.Request, reqBody []byte, summary anthropic.RequestSummary) {
	h.storePayload(requestID, ts, origReq, reqBody, resp, nil, summary)

	w.WriteHeader(resp.StatusCode)

	clientBody, recorderBody := stream.TeeBody(resp.Body)
	go h.publishChunks(recorderBody, requestID, ts)

	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := clientBody.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
			if canFlush {
				flusher.Flush()
			}
		}
		if err != nil {
			break
		}
	}
	clientBody.Close()
}

// publishChunks drains the recorder side of the tee into JetStream and
// finishes with a done marker carrying the request timestamp.
func (h *Handler) publishChunks(body io.Reader, requestID uuid.UUID, ts time.Time) {
	subject := jetstream.ChunkSubject(requestID.String())
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, perr := h.js.Publish(subject, buf[:n]); perr != nil {
				log.Warn().Err(perr).Str("request_id", requestID.String()).Msg("chunk publish failed")
			}
		}
		if err != nil {
			break
		}
	}

	marker, _ := json.Marshal(map[string]int64{"ts": ts.UnixNano()})
	if _, err := h.js.Publish(jetstream.DoneSubject(requestID.String()), marker); err != nil {
		log.Warn().Err(err).Str("request_id", requestID.String()).Msg("done marker publish failed")
	}
}

func (h *Handler) handleNonStreaming(w http.ResponseWriter, resp *http.Response, requestID uuid.UUID, ts time.Time, origReq *http.Request, reqBody []byte, summary anthropic.RequestSummary) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read response body")
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)

	go h.processor.ProcessNonStream(requestID, ts, respBody)
	h.storePayload(requestID, ts, origReq, reqBody, resp, respBody, summary)
}

func (h *Handler) storePayload(requestID uuid.UUID, ts time.Time, req *http.Request, reqBody []byte, resp *http.Response, respBody []byte, summary anthropic.RequestSummary) {
	extras := storage.PayloadExtras{
		SystemPrompt: summary.SystemPrompt,
		MaxTokens:    summary.MaxTokens,
		Temperature:  summary.Temperature,
		TopP:         summary.TopP,
	}
	h.writer.Enqueue(storage.InsertPayloadJob(
		requestID, ts,
		redactHeaders(req.Header), redactHeaders(resp.Header),
		reqBody, respBody, extras,
	))
}

func isStreamingResponse(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}

func buildTargetURL(baseURL, path, rawQuery string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{Scheme: "https", Host: "api.anthropic.com"}
	}
	u.Path = path
	u.RawQuery = rawQuery
	return u.String()
}
