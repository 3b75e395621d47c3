package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsRefinery/internal/domain"
)

func sampleRefined() domain.RefinedArticle {
	return domain.RefinedArticle{
		RawArticle: domain.RawArticle{OriginID: "src:1", Title: "final title", Language: "en"},
		SEOTitle:   "final title | digest",
		RefinedAt:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishPostsArticle(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "secret-token")
	if err := p.Publish(context.Background(), sampleRefined()); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotBody["Title"] != "final title" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
}

func TestPublishNon2xxFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "")
	if err := p.Publish(context.Background(), sampleRefined()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestPublishWithoutEndpoint(t *testing.T) {
	t.Parallel()

	p := NewWebhookPublisher("", "")
	if err := p.Publish(context.Background(), sampleRefined()); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}
