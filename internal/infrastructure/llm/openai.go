package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsRefinery/internal/config"
	"NewsRefinery/internal/ports"
)

// Per-kind system prompts. The user message carries the raw text; the target
// language is spliced into the prompt.
var kindPrompts = map[ports.RefineKind]string{
	ports.RefineTitle:          "Rewrite the following article title in %s. Keep it factual and under 90 characters. Reply with the title only.",
	ports.RefineContent:        "Rewrite the following article body in %s. Preserve every fact, improve flow and clarity. Reply with the body only.",
	ports.RefineSummary:        "Summarize the following article in %s in 2-3 sentences. Reply with the summary only.",
	ports.RefineSEOTitle:       "Produce an SEO page title in %s for the following article title, under 60 characters. Reply with the title only.",
	ports.RefineSEODescription: "Produce an SEO meta description in %s for the following summary, under 160 characters. Reply with the description only.",
	ports.RefineKeyword:        "Extract the single most relevant search keyword phrase in %s from the following text. Reply with the phrase only.",
}

// OpenAIRefiner implements ports.Refiner against OpenAI-compatible
// chat-completion APIs.
type OpenAIRefiner struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Refiner = (*OpenAIRefiner)(nil)

// NewOpenAIRefiner builds a client from configuration.
func NewOpenAIRefiner(cfg config.RefinerConfig) *OpenAIRefiner {
	return &OpenAIRefiner{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Model names the backing model for RefinedArticle stamping.
func (c *OpenAIRefiner) Model() string {
	return c.model
}

// Refine posts one rewrite request and returns the assistant text.
func (c *OpenAIRefiner) Refine(ctx context.Context, text, targetLanguage string, kind ports.RefineKind) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("refiner misconfigured")
	}
	prompt, ok := kindPrompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown refine kind %q", kind)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(prompt, languageName(targetLanguage))},
			{"role": "user", "content": text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal refine payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refine call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("refiner error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode refiner response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("refiner returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// languageName expands common codes so prompts read naturally; unknown codes
// pass through as-is.
func languageName(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "English"
	case "zh":
		return "Chinese"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "ja":
		return "Japanese"
	case "ru":
		return "Russian"
	default:
		return code
	}
}
