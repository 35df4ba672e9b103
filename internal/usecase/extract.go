package usecase

import (
	"regexp"
	"strings"
)

// Best-effort extraction of structure from free-form model replies. The
// suggestion and classification calls have no output contract, so every
// parser here degrades to a fixed fallback instead of failing the turn.

const suggestionCount = 3

var topicCategories = []string{
	"Benefits",
	"Policies",
	"Procedures",
	"Career Development",
	"Compensation",
	"Time Off",
	"Other",
}

// fallbackSuggestions pads short or malformed suggestion replies.
var fallbackSuggestions = []string{
	"How does this affect my role?",
	"Who do I contact?",
	"What's next?",
}

// errorSuggestions are returned on the whole-turn failure path.
var errorSuggestions = []string{
	"Can you rephrase your question?",
	"Would you like to ask about something else?",
	"Would you like to speak with someone from HR directly?",
}

var enumerationPrefix = regexp.MustCompile(`^\s*(?:[-*]\s*)?\d*[.)]?\s*`)

// parseSuggestions scans the reply line by line, strips leading enumeration
// markers, and keeps lines containing '?'. The result is padded with fixed
// fallbacks or truncated so exactly three suggestions come back.
func parseSuggestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		clean := strings.TrimSpace(enumerationPrefix.ReplaceAllString(line, ""))
		if clean != "" && strings.Contains(clean, "?") {
			out = append(out, clean)
		}
	}
	if len(out) < suggestionCount {
		out = append(out, fallbackSuggestions...)
	}
	return out[:suggestionCount]
}

// extractTopic maps a classification reply onto the closed category set.
// The reply is scanned for a known category name case-insensitively;
// anything unrecognized becomes "Other" so malformed output can never
// widen the set.
func extractTopic(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "Other"
	}
	for _, cat := range topicCategories {
		if strings.Contains(cleaned, strings.ToLower(cat)) {
			return cat
		}
	}
	return "Other"
}

// extractGrounding validates a semantic retrieval reply. An empty reply or
// the no-content marker means the semantic tier found nothing and the
// lexical fallback should run.
func extractGrounding(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, noRelevantContentMarker) {
		return "", false
	}
	return trimmed, true
}

// fallbackSummary synthesizes a deterministic summary from the question
// when the summarization call fails.
func fallbackSummary(question string) string {
	const prefixLen = 30
	if len(question) > prefixLen {
		question = question[:prefixLen]
	}
	return "Conversation about " + question + "..."
}
