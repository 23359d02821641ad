package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/textutil"
)

// FeedScanner reads RSS, Atom and JSON feeds.
type FeedScanner struct {
	fetcher fetcher
	now     func() time.Time
}

// NewFeedScanner wires an HTTP client; nil falls back to a default client.
func NewFeedScanner(client *http.Client, cfg config.FetchConfig) *FeedScanner {
	return &FeedScanner{
		fetcher: newFetcher(client, cfg.UserAgent, cfg.Timeout),
		now:     time.Now,
	}
}

// Kind identifies the strategy inside the registry.
func (s *FeedScanner) Kind() string {
	return config.SourceKindFeed
}

// Scan downloads the feed and converts its entries in document order.
func (s *FeedScanner) Scan(ctx context.Context, source config.SourceConfig) ([]domain.Article, error) {
	var feed *gofeed.Feed
	err := s.fetcher.get(ctx, source.URL, func(body io.Reader) error {
		parsed, err := gofeed.NewParser().Parse(body)
		if err != nil {
			return fmt.Errorf("parse feed: %w", err)
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		article, ok := convertItem(item, source.Name, now)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func convertItem(item *gofeed.Item, sourceName string, now time.Time) (domain.Article, bool) {
	title := textutil.StripHTML(item.Title)
	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	if title == "" || link == "" {
		return domain.Article{}, false
	}

	var published string
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.Format(domain.DateLayout)
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.Format(domain.DateLayout)
	case strings.TrimSpace(item.Published) != "":
		published = strings.TrimSpace(item.Published)
	default:
		published = domain.PublishedOrToday(nil, now)
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	return domain.Article{
		Link:      link,
		Title:     title,
		Source:    sourceName,
		Published: published,
		Summary:   textutil.StripHTML(summary),
		Method:    domain.MethodNone,
	}, true
}
