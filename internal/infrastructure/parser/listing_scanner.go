package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/textutil"
)

// Option keys read from SourceConfig.Options by the listing scanner.
const (
	OptItem       = "item"
	OptTitle      = "title"
	OptLink       = "link"
	OptDate       = "date"
	OptSummary    = "summary"
	OptDateLayout = "dateLayout"
)

// ListingScanner extracts articles from an HTML table of contents using CSS selectors.
type ListingScanner struct {
	fetcher fetcher
	now     func() time.Time
}

// NewListingScanner wires an HTTP client; nil falls back to a default client.
func NewListingScanner(client *http.Client, cfg config.FetchConfig) *ListingScanner {
	return &ListingScanner{
		fetcher: newFetcher(client, cfg.UserAgent, cfg.Timeout),
		now:     time.Now,
	}
}

// Kind identifies the strategy inside the registry.
func (s *ListingScanner) Kind() string {
	return config.SourceKindListing
}

// Scan fetches the listing page and walks the item selector in page order.
func (s *ListingScanner) Scan(ctx context.Context, source config.SourceConfig) ([]domain.Article, error) {
	itemSel := source.Options[OptItem]
	if itemSel == "" {
		return nil, fmt.Errorf("source %s: option %q is required", source.Name, OptItem)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url %s: %w", source.URL, err)
	}

	var doc *goquery.Document
	err = s.fetcher.get(ctx, source.URL, func(body io.Reader) error {
		parsed, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return fmt.Errorf("parse document: %w", err)
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	var collected []domain.Article
	doc.Find(itemSel).Each(func(_ int, sel *goquery.Selection) {
		article, ok := parseListingEntry(sel, base, source, now)
		if ok {
			collected = append(collected, article)
		}
	})
	return collected, nil
}

func parseListingEntry(sel *goquery.Selection, base *url.URL, source config.SourceConfig, now time.Time) (domain.Article, bool) {
	titleSel := optionOr(source.Options, OptTitle, "a")
	linkSel := optionOr(source.Options, OptLink, titleSel)

	title := textutil.CollapseSpace(sel.Find(titleSel).First().Text())

	linkNode := sel.Find(linkSel).First()
	href, ok := linkNode.Attr("href")
	if !ok {
		href, _ = linkNode.Find("a[href]").First().Attr("href")
	}
	href = strings.TrimSpace(href)
	if title == "" || href == "" {
		return domain.Article{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return domain.Article{}, false
	}
	link := base.ResolveReference(ref).String()

	published := domain.PublishedOrToday(nil, now)
	if dateSel := source.Options[OptDate]; dateSel != "" {
		raw := textutil.CollapseSpace(sel.Find(dateSel).First().Text())
		if raw != "" {
			published = normalizeDate(raw, source.Options[OptDateLayout])
		}
	}

	var summary string
	if summarySel := source.Options[OptSummary]; summarySel != "" {
		summary = textutil.CollapseSpace(sel.Find(summarySel).First().Text())
	}

	return domain.Article{
		Link:      link,
		Title:     title,
		Source:    source.Name,
		Published: published,
		Summary:   summary,
		Method:    domain.MethodNone,
	}, true
}

// normalizeDate reformats raw into domain.DateLayout when layout parses it, otherwise keeps raw.
func normalizeDate(raw, layout string) string {
	if layout == "" {
		return raw
	}
	parsed, err := time.Parse(layout, raw)
	if err != nil {
		return raw
	}
	return parsed.Format(domain.DateLayout)
}

func optionOr(opts map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(opts[key]); v != "" {
		return v
	}
	return fallback
}
