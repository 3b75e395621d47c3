package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// WebhookPublisher posts refined articles as JSON to a configured endpoint.
type WebhookPublisher struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ ports.Publisher = (*WebhookPublisher)(nil)

// NewWebhookPublisher registers the endpoint and an optional bearer token.
func NewWebhookPublisher(endpoint, token string) *WebhookPublisher {
	return &WebhookPublisher{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish posts one article; any non-2xx answer is a publish failure.
func (p *WebhookPublisher) Publish(ctx context.Context, article domain.RefinedArticle) error {
	if p.endpoint == "" {
		return fmt.Errorf("webhook publisher misconfigured")
	}

	body, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}
