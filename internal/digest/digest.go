// Package digest groups the articles of one run by source, relevant items first.
package digest

import "JournalDigest/internal/domain"

type bucket struct {
	relevant []domain.Article
	other    []domain.Article
}

// Digest is built fresh for every run. Within a source, relevant articles precede
// the rest and both groups keep the order in which they were added.
type Digest struct {
	order         []string
	buckets       map[string]*bucket
	TotalNew      int
	TotalRelevant int
}

// New returns an empty digest.
func New() *Digest {
	return &Digest{buckets: map[string]*bucket{}}
}

// Add files the article under its source and updates the counters.
func (d *Digest) Add(a domain.Article) {
	b, ok := d.buckets[a.Source]
	if !ok {
		b = &bucket{}
		d.buckets[a.Source] = b
		d.order = append(d.order, a.Source)
	}

	if a.Relevant {
		b.relevant = append(b.relevant, a)
		d.TotalRelevant++
	} else {
		b.other = append(b.other, a)
	}
	d.TotalNew++
}

// IsEmpty reports whether nothing new was added; an empty digest is never delivered.
func (d *Digest) IsEmpty() bool {
	return d.TotalNew == 0
}

// Sources lists source names in first-insertion order.
func (d *Digest) Sources() []string {
	return append([]string(nil), d.order...)
}

// Articles returns the ordered bucket for source.
func (d *Digest) Articles(source string) []domain.Article {
	b, ok := d.buckets[source]
	if !ok {
		return nil
	}
	out := make([]domain.Article, 0, len(b.relevant)+len(b.other))
	out = append(out, b.relevant...)
	return append(out, b.other...)
}

// RelevantCount is the number of relevant articles filed under source.
func (d *Digest) RelevantCount(source string) int {
	if b, ok := d.buckets[source]; ok {
		return len(b.relevant)
	}
	return 0
}

// All returns every article in digest order.
func (d *Digest) All() []domain.Article {
	out := make([]domain.Article, 0, d.TotalNew)
	for _, source := range d.order {
		out = append(out, d.Articles(source)...)
	}
	return out
}
