package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// Anthropic implements Streamer against the Anthropic Messages API.
//
// Plain calls stream over SSE. Tool-enabled calls are not streamed: the full
// body is buffered and parsed once, because tool_use blocks only make sense
// as a complete response.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAnthropic creates an Anthropic streamer with the default API endpoint.
func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{
		httpClient: &http.Client{},
		baseURL:    "https://api.anthropic.com",
		apiKey:     apiKey,
	}
}

func (p *Anthropic) Name() string { return "anthropic" }

// Stream implements Streamer.Stream.
func (p *Anthropic) Stream(ctx context.Context, req Request, events chan<- Event) error {
	if req.Tools != nil {
		return p.callWithTools(ctx, req, events)
	}
	return p.streamSSE(ctx, req, events)
}

func (p *Anthropic) streamSSE(ctx context.Context, req Request, events chan<- Event) error {
	resp, err := p.post(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		emitHTTPError(ctx, events, resp)
		return nil
	}

	done := false
	err = forEachDataLine(resp.Body, func(data string) bool {
		if data == "[DONE]" {
			done = emit(ctx, events, Event{Kind: EventDone})
			return false
		}

		var ev struct {
			Type  string `json:"type"`
			Delta struct {
				Text string `json:"text"`
			} `json:"delta"`
		}
		// Malformed lines are skipped rather than aborting the stream.
		if json.Unmarshal([]byte(data), &ev) != nil {
			return true
		}

		switch ev.Type {
		case "content_block_delta":
			return emit(ctx, events, Event{Kind: EventChunk, Text: ev.Delta.Text})
		case "message_stop":
			done = emit(ctx, events, Event{Kind: EventDone})
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	if !done {
		emit(ctx, events, Event{Kind: EventDone})
	}
	return nil
}

// callWithTools buffers the whole response. Text blocks are emitted as
// chunks first; if any block is a tool_use the raw body follows as a
// ToolPayload for the orchestrator, otherwise the turn is Done.
func (p *Anthropic) callWithTools(ctx context.Context, req Request, events chan<- Event) error {
	resp, err := p.post(ctx, req, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		emit(ctx, events, Event{Kind: EventError, Err: fmt.Sprintf("API error %d: %s", resp.StatusCode, string(body))})
		return nil
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		emit(ctx, events, Event{Kind: EventError, Err: fmt.Sprintf("malformed response body: %v", err)})
		return nil
	}

	hasToolUse := false
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			if !emit(ctx, events, Event{Kind: EventChunk, Text: block.Text}) {
				return nil
			}
		case "tool_use":
			hasToolUse = true
		}
	}

	if hasToolUse {
		emit(ctx, events, Event{Kind: EventToolPayload, Raw: body})
	} else {
		emit(ctx, events, Event{Kind: EventDone})
	}
	return nil
}

func (p *Anthropic) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body := map[string]any{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"stream":      stream,
		"messages":    req.Messages,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.Tools != nil {
		body["tools"] = req.Tools
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// emitHTTPError reads the full error body and surfaces one Error event.
// No retry happens at this layer.
func emitHTTPError(ctx context.Context, events chan<- Event, resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)
	emit(ctx, events, Event{Kind: EventError, Err: fmt.Sprintf("API error %d: %s", resp.StatusCode, string(body))})
}
