package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// HTMLList scrapes an index page that lists articles in <article> blocks.
// Sources whose upstream has no feed use this strategy.
type HTMLList struct {
	client *http.Client
}

var _ ports.Fetcher = (*HTMLList)(nil)

// NewHTMLList wires an HTTP client; a nil client gets a 20s-timeout default.
func NewHTMLList(client *http.Client) *HTMLList {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLList{client: client}
}

// Fetch downloads the source page and extracts one article per block. Blocks
// without a link are skipped; the resolved link doubles as the origin id.
func (h *HTMLList) Fetch(ctx context.Context, source domain.Source) ([]domain.RawArticle, error) {
	if source.FeedURL == "" {
		return nil, fmt.Errorf("source %s has no page url", source.ID)
	}

	doc, err := h.fetchDocument(ctx, source.FeedURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(source.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var articles []domain.RawArticle
	doc.Find("article").Each(func(_ int, block *goquery.Selection) {
		link := block.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		title := strings.TrimSpace(block.Find("h1, h2, h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		summary := strings.TrimSpace(block.Find("p").First().Text())

		articles = append(articles, domain.RawArticle{
			OriginID: source.ID + ":" + resolved.String(),
			Title:    title,
			Content:  summary,
			Summary:  summary,
			Language: source.Language,
			Category: source.Category,
			SourceID: source.ID,
		})
	})

	return articles, nil
}

func (h *HTMLList) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s for %s", res.Status, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
