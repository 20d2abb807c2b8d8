package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// openAIClient implements Client against an OpenAI-compatible
// chat-completions API.
type openAIClient struct {
	baseURL          string
	apiKey           string
	model            string
	client           *http.Client
	maxResponseBytes int64
}

// NewOpenAI creates a reasoning client for an OpenAI-compatible endpoint.
// The timeout is owned here; rule logic upstream never waits longer than it.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration, maxResponseBytes int64) Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = 1 << 20
	}

	return &openAIClient{
		baseURL:          baseURL,
		apiKey:           apiKey,
		model:            model,
		maxResponseBytes: maxResponseBytes,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/chat/completions", c.baseURL),
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call reasoning service: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.maxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read reasoning response: %w", err)
	}
	if int64(len(respBody)) > c.maxResponseBytes {
		return "", fmt.Errorf("reasoning response exceeded limit (%d bytes)", c.maxResponseBytes)
	}

	if resp.StatusCode >= 400 {
		var errBody apiErrorResponse
		if err := json.Unmarshal(respBody, &errBody); err != nil {
			return "", fmt.Errorf("reasoning service status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("reasoning service error: %s (type=%s)", errBody.Error.Message, errBody.Error.Type)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", fmt.Errorf("decode reasoning response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("reasoning response had no choices")
	}

	return chat.Choices[0].Message.Content, nil
}
