// Package ai is a stateless adapter to an OpenAI-compatible provider:
// text embeddings and chat completions. It classifies failures into a
// small taxonomy and performs no retries; callers own retry policy.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the provider endpoint settings shared by all tenants.
// The API key is per-call (BYOK), never part of the client.
type Config struct {
	BaseURL        string
	EmbeddingModel string
	Timeout        time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// errorBody is the JSON error envelope OpenAI-compatible providers
// return on non-2xx responses.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns the embedding vector for text using the tenant's key.
// All failures are *ProviderFailure; a success response with a
// missing or empty vector is itself a KindProviderError.
func (c *Client) Embed(ctx context.Context, apiKey, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ProviderFailure{Kind: KindProviderError, Message: "embed: empty input"}
	}

	raw, status, err := c.post(ctx, apiKey, "/embeddings", map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": text,
	})
	if err != nil {
		return nil, transportFailure("embedding request", err)
	}
	if status >= 300 {
		return nil, failure(status, upstreamMessage(raw, "Embedding request failed"))
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, transportFailure("parse embedding response", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, &ProviderFailure{Kind: KindProviderError, Message: "embedding vector missing in response"}
	}
	return parsed.Data[0].Embedding, nil
}

// Complete runs a chat completion with the given model and messages.
// Temperature is fixed low to bias toward grounded answers.
func (c *Client) Complete(ctx context.Context, apiKey, model string, messages []Message, temperature float64) (string, error) {
	raw, status, err := c.post(ctx, apiKey, "/chat/completions", map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
	})
	if err != nil {
		return "", transportFailure("completion request", err)
	}
	if status >= 300 {
		return "", failure(status, upstreamMessage(raw, "Chat request failed"))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", transportFailure("parse completion response", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ProviderFailure{Kind: KindProviderError, Message: "completion text missing in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, apiKey, path string, body interface{}) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

func upstreamMessage(raw []byte, fallback string) string {
	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return fallback
}
