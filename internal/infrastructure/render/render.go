// Package render turns a digest into the subject, HTML and plain-text bodies of one message.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"JournalDigest/internal/digest"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/ports"
	"JournalDigest/internal/textutil"
)

const htmlShell = `<html><body style="font-family:Helvetica,Arial,sans-serif;color:#2c3e50;">
%s</body></html>
`

// Renderer is stateless apart from its settings and safe for concurrent use.
type Renderer struct {
	subjectPrefix string
	summaryLength int
	markdown      goldmark.Markdown
}

// New builds a renderer; summaryLength <= 0 keeps full summaries.
func New(subjectPrefix string, summaryLength int) *Renderer {
	if subjectPrefix == "" {
		subjectPrefix = "Journal digest"
	}
	return &Renderer{
		subjectPrefix: subjectPrefix,
		summaryLength: summaryLength,
		markdown:      goldmark.New(),
	}
}

// Subject reflects the relevant and new counts.
func (r *Renderer) Subject(d *digest.Digest) string {
	return fmt.Sprintf("%s (%d relevant / %d new)", r.subjectPrefix, d.TotalRelevant, d.TotalNew)
}

// Render produces the full message.
func (r *Renderer) Render(d *digest.Digest) (ports.Message, error) {
	md := r.Markdown(d)

	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &body); err != nil {
		return ports.Message{}, fmt.Errorf("convert markdown: %w", err)
	}

	return ports.Message{
		Subject: r.Subject(d),
		HTML:    fmt.Sprintf(htmlShell, body.String()),
		Text:    r.Text(d),
	}, nil
}

// Markdown renders the digest as CommonMark; feed-provided text is escaped.
func (r *Renderer) Markdown(d *digest.Digest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(r.subjectPrefix))
	fmt.Fprintf(&sb, "**%d** new articles, **%d** relevant.\n\n", d.TotalNew, d.TotalRelevant)

	for _, source := range d.Sources() {
		articles := d.Articles(source)
		fmt.Fprintf(&sb, "---\n\n## %s (%d)\n\n", escapeMarkdown(source), len(articles))
		for _, a := range articles {
			fmt.Fprintf(&sb, "- **[%s](<%s>)**", escapeMarkdown(a.Title), escapeDestination(a.Link))
			if a.Relevant {
				fmt.Fprintf(&sb, " · *relevant, %s*", a.Method)
			}
			fmt.Fprintf(&sb, "  \n  %s\n", escapeMarkdown(a.Published))
			if summary := r.summary(a); summary != "" {
				fmt.Fprintf(&sb, "\n  > %s\n", escapeMarkdown(summary))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Text renders the plain-text alternative used by chat transports and mail clients without HTML.
func (r *Renderer) Text(d *digest.Digest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d new, %d relevant\n", r.subjectPrefix, d.TotalNew, d.TotalRelevant)

	for _, source := range d.Sources() {
		articles := d.Articles(source)
		fmt.Fprintf(&sb, "\n== %s (%d, %d relevant) ==\n", source, len(articles), d.RelevantCount(source))
		for _, a := range articles {
			sb.WriteString("* ")
			sb.WriteString(a.Title)
			if a.Relevant {
				fmt.Fprintf(&sb, " [relevant: %s]", a.Method)
			}
			fmt.Fprintf(&sb, "\n  %s\n  %s\n", a.Link, a.Published)
			if summary := r.summary(a); summary != "" {
				fmt.Fprintf(&sb, "  %s\n", summary)
			}
		}
	}
	return sb.String()
}

// summary is shown for relevant articles only.
func (r *Renderer) summary(a domain.Article) string {
	if !a.Relevant || a.Summary == "" {
		return ""
	}
	if r.summaryLength <= 0 {
		return a.Summary
	}
	return textutil.Truncate(a.Summary, r.summaryLength)
}

// escapeMarkdown backslash-escapes every ASCII punctuation character, which CommonMark
// always treats as a literal.
func escapeMarkdown(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range textutil.CollapseSpace(s) {
		if r < 0x80 && isASCIIPunct(byte(r)) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

var destinationReplacer = strings.NewReplacer("<", "%3C", ">", "%3E", " ", "%20", "\n", "", "\r", "", "\\", "%5C")

func escapeDestination(link string) string {
	return destinationReplacer.Replace(strings.TrimSpace(link))
}
