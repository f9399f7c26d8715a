package pipeline

import (
	"regexp"
	"strings"
)

// DefaultFillers are the hesitation words stripped by the post-processing
// stage.
var DefaultFillers = []string{"um", "uh", "like", "you know", "er", "ah"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FillerPattern compiles a case-insensitive word-boundary pattern for the
// given filler list. A trailing comma after the filler is swallowed too.
func FillerPattern(fillers []string) *regexp.Regexp {
	quoted := make([]string, 0, len(fillers))
	for _, filler := range fillers {
		filler = strings.TrimSpace(filler)
		if filler == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(filler))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b,?`)
}

// RemoveFillers strips filler words and collapses the whitespace left
// behind.
func RemoveFillers(text string, fillers []string) string {
	pattern := FillerPattern(fillers)
	if pattern == nil {
		return NormalizeWhitespace(text)
	}
	return NormalizeWhitespace(pattern.ReplaceAllString(text, ""))
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and
// cleans up space left before punctuation.
func NormalizeWhitespace(text string) string {
	out := whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	for _, punct := range []string{",", ".", "!", "?", ";", ":"} {
		out = strings.ReplaceAll(out, " "+punct, punct)
	}
	return out
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// SplitSentences breaks text on sentence-ending punctuation.
func SplitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// SummarizeText produces a short extract: text up to five sentences passes
// through whole, longer text keeps the first sentence, the ones a third and
// two thirds of the way in, and the last.
func SummarizeText(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) <= 5 {
		return NormalizeWhitespace(text)
	}

	n := len(sentences)
	picks := []int{0, n / 3, 2 * n / 3, n - 1}
	var out []string
	seen := -1
	for _, idx := range picks {
		if idx <= seen {
			continue
		}
		seen = idx
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " ")
}
