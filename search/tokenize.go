package search

import (
	"regexp"
	"strings"
)

var tokenRegex = regexp.MustCompile(`(?i)(#\w+)|([A-Za-z0-9_]+)`)

var stopWords = map[string]bool{
	"the": true, "and": true, "of": true, "in": true, "to": true,
	"for": true, "on": true, "with": true, "a": true, "an": true,
}

// Tokenize lowercases text and splits it into deduplicated index terms.
// Stop words are dropped; hashtags keep their # prefix.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	matches := tokenRegex.FindAllString(text, -1)

	out := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		t := strings.ToLower(m)
		if stopWords[t] {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func ExtractHashtags(text string) []string {
	var tags []string
	for _, t := range Tokenize(text) {
		if strings.HasPrefix(t, "#") {
			tags = append(tags, t)
		}
	}
	return tags
}
