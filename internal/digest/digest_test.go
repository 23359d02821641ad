package digest

import (
	"testing"

	"JournalDigest/internal/domain"
)

func links(articles []domain.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Link
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBucketOrderingRelevantFirstStable(t *testing.T) {
	t.Parallel()

	d := New()
	d.Add(domain.Article{Link: "A", Source: "S"})
	d.Add(domain.Article{Link: "B", Source: "S", Relevant: true})
	d.Add(domain.Article{Link: "C", Source: "S"})
	d.Add(domain.Article{Link: "D", Source: "S", Relevant: true})

	if got := links(d.Articles("S")); !equal(got, []string{"B", "D", "A", "C"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if d.TotalNew != 4 || d.TotalRelevant != 2 {
		t.Fatalf("unexpected totals: new=%d relevant=%d", d.TotalNew, d.TotalRelevant)
	}
	if d.RelevantCount("S") != 2 {
		t.Fatalf("unexpected relevant count: %d", d.RelevantCount("S"))
	}
}

func TestSourcesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	d := New()
	d.Add(domain.Article{Link: "1", Source: "RFS"})
	d.Add(domain.Article{Link: "2", Source: "JFE", Relevant: true})
	d.Add(domain.Article{Link: "3", Source: "RFS", Relevant: true})

	if got := d.Sources(); !equal(got, []string{"RFS", "JFE"}) {
		t.Fatalf("unexpected sources: %v", got)
	}
	if got := links(d.All()); !equal(got, []string{"3", "1", "2"}) {
		t.Fatalf("unexpected All order: %v", got)
	}
}

func TestEmptyDigest(t *testing.T) {
	t.Parallel()

	d := New()
	if !d.IsEmpty() {
		t.Fatalf("new digest should be empty")
	}
	if d.Articles("missing") != nil || d.RelevantCount("missing") != 0 {
		t.Fatalf("unknown source should have no articles")
	}
	if len(d.All()) != 0 || len(d.Sources()) != 0 {
		t.Fatalf("empty digest should list nothing")
	}

	d.Add(domain.Article{Link: "x", Source: "S"})
	if d.IsEmpty() {
		t.Fatalf("digest with one article is not empty")
	}
}

func TestSourcesReturnsCopy(t *testing.T) {
	t.Parallel()

	d := New()
	d.Add(domain.Article{Link: "x", Source: "S"})
	d.Sources()[0] = "mutated"
	if d.Sources()[0] != "S" {
		t.Fatalf("Sources must not expose internal state")
	}
}
