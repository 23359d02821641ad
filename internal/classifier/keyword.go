package classifier

import "strings"

// KeywordMatcher is the deterministic first tier: case-insensitive substring search
// of a fixed allow-list.
type KeywordMatcher struct {
	keywords     []string
	lowered      []string
	matchSummary bool
}

// NewKeywordMatcher drops blank entries; matchSummary extends the search to summaries.
func NewKeywordMatcher(allow []string, matchSummary bool) *KeywordMatcher {
	m := &KeywordMatcher{matchSummary: matchSummary}
	for _, kw := range allow {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		m.keywords = append(m.keywords, kw)
		m.lowered = append(m.lowered, strings.ToLower(kw))
	}
	return m
}

// Match returns the first allow-list entry found in title (or summary).
func (m *KeywordMatcher) Match(title, summary string) (string, bool) {
	if m == nil || len(m.lowered) == 0 {
		return "", false
	}

	title = strings.ToLower(title)
	if m.matchSummary {
		summary = strings.ToLower(summary)
	}
	for i, kw := range m.lowered {
		if strings.Contains(title, kw) {
			return m.keywords[i], true
		}
		if m.matchSummary && strings.Contains(summary, kw) {
			return m.keywords[i], true
		}
	}
	return "", false
}
