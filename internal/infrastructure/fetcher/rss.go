package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// RSS fetches candidate articles from a source's feed URL.
type RSS struct {
	parser *gofeed.Parser
}

var _ ports.Fetcher = (*RSS)(nil)

// NewRSS wires an HTTP client; a nil client gets a 20s-timeout default.
func NewRSS(client *http.Client) *RSS {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	return &RSS{parser: parser}
}

// Fetch parses the feed and maps items to raw articles. The origin id is the
// item GUID when present, its link otherwise.
func (r *RSS) Fetch(ctx context.Context, source domain.Source) ([]domain.RawArticle, error) {
	if source.FeedURL == "" {
		return nil, fmt.Errorf("source %s has no feed url", source.ID)
	}

	feed, err := r.parser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.FeedURL, err)
	}

	articles := make([]domain.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		originID := item.GUID
		if originID == "" {
			originID = item.Link
		}
		if originID == "" {
			continue
		}

		article := domain.RawArticle{
			OriginID: source.ID + ":" + originID,
			Title:    item.Title,
			Content:  item.Content,
			Summary:  item.Description,
			Language: source.Language,
			Category: source.Category,
			SourceID: source.ID,
		}
		if article.Content == "" {
			article.Content = item.Description
		}
		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			article.Author = item.Authors[0].Name
		}
		articles = append(articles, article)
	}
	return articles, nil
}
