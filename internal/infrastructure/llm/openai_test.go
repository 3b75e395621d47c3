package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsRefinery/internal/config"
	"NewsRefinery/internal/ports"
)

func newFakeBackend(t *testing.T, reply string) (*httptest.Server, *[]map[string]any) {
	t.Helper()

	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, body)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  " + reply + "\n"}},
			},
		})
	}))
	return srv, &requests
}

func newRefiner(endpoint string) *OpenAIRefiner {
	return NewOpenAIRefiner(config.RefinerConfig{
		Endpoint: endpoint,
		Model:    "gpt-4o-mini",
		APIKey:   "test-key",
	})
}

func TestRefineSendsPromptAndTrimsReply(t *testing.T) {
	t.Parallel()

	srv, requests := newFakeBackend(t, "A better title")
	defer srv.Close()

	out, err := newRefiner(srv.URL).Refine(context.Background(), "raw title", "zh", ports.RefineTitle)
	if err != nil {
		t.Fatalf("refine returned error: %v", err)
	}
	if out != "A better title" {
		t.Fatalf("expected trimmed reply, got %q", out)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected one call, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", req["model"])
	}
	messages, _ := req["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %v", messages)
	}
	system, _ := messages[0].(map[string]any)
	if content, _ := system["content"].(string); !strings.Contains(content, "Chinese") {
		t.Fatalf("expected language expanded in prompt, got %q", content)
	}
	user, _ := messages[1].(map[string]any)
	if user["content"] != "raw title" {
		t.Fatalf("expected raw text as user message, got %v", user["content"])
	}
}

func TestRefineServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newRefiner(srv.URL).Refine(context.Background(), "text", "en", ports.RefineSummary)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got: %v", err)
	}
}

func TestRefineEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := newRefiner(srv.URL).Refine(context.Background(), "text", "en", ports.RefineContent)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestRefineMisconfigured(t *testing.T) {
	t.Parallel()

	r := NewOpenAIRefiner(config.RefinerConfig{})
	if _, err := r.Refine(context.Background(), "text", "en", ports.RefineTitle); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}

func TestRefineUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := newRefiner("http://unused").Refine(context.Background(), "text", "en", ports.RefineKind("translate")); err == nil {
		t.Fatal("expected unknown kind error")
	}
}
