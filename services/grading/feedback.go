package grading

import (
	"fmt"
	"strings"

	"studyhelper/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxWeakAreas caps how many weak areas feedback names.
const maxWeakAreas = 2

// WeakAreaIdentifier names the subjects behind incorrectly answered
// questions. Implementations must be deterministic for identical inputs.
type WeakAreaIdentifier interface {
	Identify(topic string, missed []models.QuizQuestion) []string
}

// KeywordIdentifier matches a fixed subject lexicon against the text of
// missed questions. Keywords are checked in lexicon order so the result is
// stable across runs; a missed question matching no keyword contributes a
// snippet of its own text instead.
type KeywordIdentifier struct {
	lexicon []string
}

var defaultLexicon = []string{
	"database", "indexing", "normalization", "transactions", "sql",
	"caching", "performance", "scalability", "concurrency", "networking",
	"security", "testing", "algorithms", "data structures", "architecture",
	"recursion", "inheritance", "functions", "variables", "syntax",
}

func NewKeywordIdentifier(extra ...string) *KeywordIdentifier {
	lexicon := make([]string, 0, len(defaultLexicon)+len(extra))
	lexicon = append(lexicon, extra...)
	lexicon = append(lexicon, defaultLexicon...)
	return &KeywordIdentifier{lexicon: lexicon}
}

func (k *KeywordIdentifier) Identify(topic string, missed []models.QuizQuestion) []string {
	var areas []string
	seen := make(map[string]bool)

	for _, q := range missed {
		if len(areas) >= maxWeakAreas {
			break
		}

		area := k.matchKeyword(q.QuestionText)
		if area == "" {
			area = questionSnippet(q.QuestionText)
		}
		if area == "" || seen[area] {
			continue
		}

		seen[area] = true
		areas = append(areas, area)
	}

	return areas
}

func (k *KeywordIdentifier) matchKeyword(questionText string) string {
	words := cleanWords(questionText)
	for _, keyword := range k.lexicon {
		if len(fuzzy.Find(keyword, words)) > 0 {
			return keyword
		}
		if fuzzy.MatchFold(keyword, questionText) {
			return keyword
		}
	}
	return ""
}

func cleanWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, word := range fields {
		cleaned := strings.Trim(word, ".,!?;:()[]{}\"'")
		if cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}

// questionSnippet falls back to the leading words of the question itself
// when no lexicon keyword applies.
func questionSnippet(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.TrimRight(strings.Join(words, " "), "?.!,")
}

// buildFeedback produces the single-sentence performance feedback. It is a
// fixed template over the percentage and identified weak areas, so grading
// stays deterministic with no generation call at submission time.
func (e *Engine) buildFeedback(topic string, percentage float64, missed []models.QuizQuestion) string {
	if len(missed) == 0 {
		return fmt.Sprintf("Excellent work! You scored %.1f%% on %s, keep up the great momentum.", percentage, topic)
	}

	areas := e.weakAreas.Identify(topic, missed)
	if len(areas) == 0 {
		return fmt.Sprintf("You scored %.1f%% on %s, review the missed questions and try again.", percentage, topic)
	}

	return fmt.Sprintf("You scored %.1f%% on %s, focus your revision on %s to improve further.",
		percentage, topic, strings.Join(areas, " and "))
}
