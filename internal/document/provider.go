// Package document supplies the HR reference text and a lexical fallback
// for selecting question-relevant excerpts when semantic retrieval is
// unavailable.
package document

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoContentSentinel is returned by Text when no reference document is
// loaded. Callers treat it as valid "ground nothing" input, not an error.
const NoContentSentinel = "No document content is currently available."

const chunkSeparator = "\n\n---\n\n"

// Provider holds the reference document text loaded at startup.
type Provider struct {
	text string
}

// NewProvider wraps already-loaded reference text.
func NewProvider(text string) *Provider {
	return &Provider{text: strings.TrimSpace(text)}
}

// LoadDir reads the first .txt or .md file (lexicographic order) from dir.
// A missing directory or no matching file yields a Provider with no
// content; only a read failure on an existing file is an error.
func LoadDir(dir string) (*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProvider(""), nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md", ".markdown":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return NewProvider(""), nil
	}
	sort.Strings(names)

	content, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		return nil, err
	}
	return NewProvider(string(content)), nil
}

// Text returns the full reference text, or NoContentSentinel when none is
// loaded.
func (p *Provider) Text() string {
	if p.text == "" {
		return NoContentSentinel
	}
	return p.text
}

// RelevantChunks selects up to maxChunks paragraphs from fullText by
// keyword overlap with the question, preserving document order, joined
// with separators. Purely lexical; this is the fallback retrieval tier.
func (p *Provider) RelevantChunks(question, fullText string, maxChunks int) string {
	if maxChunks <= 0 {
		maxChunks = 4
	}
	paragraphs := splitParagraphs(fullText)
	if len(paragraphs) == 0 {
		return ""
	}

	keywords := questionKeywords(question)
	type scored struct {
		index int
		score int
	}
	var hits []scored
	for i, para := range paragraphs {
		lower := strings.ToLower(para)
		score := 0
		for kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}
	if len(hits) == 0 {
		return ""
	}

	// Highest overlap first; stable so ties keep document order.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > maxChunks {
		hits = hits[:maxChunks]
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].index < hits[b].index })

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = paragraphs[h.index]
	}
	return strings.Join(parts, chunkSeparator)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

// questionKeywords extracts lower-cased terms worth matching, skipping
// short filler words.
func questionKeywords(question string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

var stopwords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true, "about": true,
	"does": true, "have": true, "that": true, "this": true, "with": true,
	"from": true, "your": true, "will": true, "much": true, "many": true,
	"should": true, "could": true, "would": true, "there": true,
}
