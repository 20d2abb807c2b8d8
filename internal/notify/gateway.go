package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Message is one alert handed to the notification gateway.
type Message struct {
	ID   string `json:"id"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Gateway delivers alert messages. Implementations are best-effort; the
// dispatcher swallows their errors.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookGateway posts messages to an SMS-style HTTP gateway.
type WebhookGateway struct {
	client *resty.Client
}

// NewWebhookGateway builds a gateway client for the given endpoint. The
// timeout is owned here, not by the caller.
func NewWebhookGateway(url, apiKey string, timeout time.Duration) *WebhookGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &WebhookGateway{client: client}
}

// Send performs a single delivery attempt. No retries: durable delivery is
// the gateway operator's problem, not this service's.
func (g *WebhookGateway) Send(ctx context.Context, msg Message) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post("")
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
