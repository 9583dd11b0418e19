package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAI implements Streamer against the OpenAI-compatible chat completions
// API. The system prompt rides as a leading system-role message since the
// API has no top-level system field.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewOpenAI creates an OpenAI streamer with the default API endpoint.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		httpClient: &http.Client{},
		baseURL:    "https://api.openai.com",
		apiKey:     apiKey,
	}
}

func (p *OpenAI) Name() string { return "openai" }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream implements Streamer.Stream.
func (p *OpenAI) Stream(ctx context.Context, req Request, events chan<- Event) error {
	msgs := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openaiMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openaiMessage{Role: m.Role, Content: m.Content.Text})
	}

	body := map[string]any{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"stream":      true,
		"messages":    msgs,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
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
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if json.Unmarshal([]byte(data), &ev) != nil {
			return true
		}
		if len(ev.Choices) == 0 {
			return true
		}
		if text := ev.Choices[0].Delta.Content; text != "" {
			return emit(ctx, events, Event{Kind: EventChunk, Text: text})
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
