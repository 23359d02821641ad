package render

import (
	"strings"
	"testing"

	"JournalDigest/internal/digest"
	"JournalDigest/internal/domain"
)

func sampleDigest() *digest.Digest {
	d := digest.New()
	d.Add(domain.Article{
		Link: "https://example.org/u2", Title: "Unrelated Macro Note", Source: "X",
		Published: "2025-10-02", Summary: "should stay hidden", Method: domain.MethodSemantic,
	})
	d.Add(domain.Article{
		Link: "https://example.org/u1", Title: "ML in Asset Pricing", Source: "X",
		Published: "2025-10-01", Summary: strings.Repeat("abcdefghij", 5), Relevant: true, Method: domain.MethodSemantic,
	})
	d.Add(domain.Article{
		Link: "https://example.org/u3", Title: "Returns & Risk <b>", Source: "Journal of Finance",
		Published: "2025-10-03", Method: domain.MethodNone,
	})
	return d
}

func TestSubject(t *testing.T) {
	t.Parallel()

	r := New("Top journals", 0)
	if got := r.Subject(sampleDigest()); got != "Top journals (1 relevant / 3 new)" {
		t.Fatalf("unexpected subject: %q", got)
	}
	if got := New("", 0).Subject(digest.New()); got != "Journal digest (0 relevant / 0 new)" {
		t.Fatalf("unexpected default subject: %q", got)
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	msg, err := New("Top journals", 20).Render(sampleDigest())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := msg.HTML
	for _, want := range []string{
		"<html>",
		"<h2>X (2)</h2>",
		"<h2>Journal of Finance (1)</h2>",
		`<a href="https://example.org/u1">ML in Asset Pricing</a>`,
		"Returns &amp; Risk &lt;b&gt;",
		"2025-10-01",
		"abcdefghijabcdefg...",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "should stay hidden") {
		t.Fatalf("non-relevant summary must not be shown:\n%s", html)
	}
	if strings.Index(html, "example.org/u1") > strings.Index(html, "example.org/u2") {
		t.Fatalf("relevant article must be listed first:\n%s", html)
	}
	if strings.Index(html, "X (2)") > strings.Index(html, "Journal of Finance (1)") {
		t.Fatalf("sources must keep insertion order:\n%s", html)
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	msg, err := New("Top journals", 0).Render(sampleDigest())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	text := msg.Text
	for _, want := range []string{
		"Top journals: 3 new, 1 relevant",
		"== X (2, 1 relevant) ==",
		"* ML in Asset Pricing [relevant: semantic]",
		"https://example.org/u3",
		strings.Repeat("abcdefghij", 5),
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	if got := escapeMarkdown("a*b_[c](d)"); got != `a\*b\_\[c\]\(d\)` {
		t.Fatalf("unexpected escape: %s", got)
	}
	if got := escapeMarkdown("金融  顶刊"); got != "金融 顶刊" {
		t.Fatalf("non-ASCII text should pass through: %s", got)
	}
}

func TestEscapeDestination(t *testing.T) {
	t.Parallel()

	if got := escapeDestination(" https://x.org/a b<c> "); got != "https://x.org/a%20b%3Cc%3E" {
		t.Fatalf("unexpected destination: %s", got)
	}
}
