package domain

import "time"

// DateLayout is the format used for published dates stored and rendered by the digest.
const DateLayout = "2006-01-02"

// RelevanceMethod records which classifier tier decided an article.
type RelevanceMethod string

const (
	MethodNone     RelevanceMethod = "none"
	MethodKeyword  RelevanceMethod = "keyword"
	MethodSemantic RelevanceMethod = "semantic"
)

// Article is a single feed item observed during one run.
type Article struct {
	Link      string
	Title     string
	Source    string
	Published string
	Summary   string
	Relevant  bool
	Method    RelevanceMethod
}

// SeenRecord is the persisted footprint of an article that was delivered.
type SeenRecord struct {
	Link      string
	Title     string
	Source    string
	Published string
	SeenAt    time.Time
}

// SeenRecordOf projects an article onto the columns kept by the novelty store.
func SeenRecordOf(a Article, seenAt time.Time) SeenRecord {
	return SeenRecord{
		Link:      a.Link,
		Title:     a.Title,
		Source:    a.Source,
		Published: a.Published,
		SeenAt:    seenAt,
	}
}

// PublishedOrToday formats t with DateLayout, falling back to now when t is nil.
func PublishedOrToday(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return now.Format(DateLayout)
	}
	return t.Format(DateLayout)
}
