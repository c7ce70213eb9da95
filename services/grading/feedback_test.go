package grading

import (
	"strings"
	"testing"

	"studyhelper/models"
)

func missedQuestion(id int, text string) models.QuizQuestion {
	q := makeQuestion(id, text, "A")
	return q
}

func TestKeywordIdentifierMatchesLexicon(t *testing.T) {
	identifier := NewKeywordIdentifier()

	tests := []struct {
		name     string
		question string
		expected string
	}{
		{"exact word match", "How do transactions maintain isolation?", "transactions"},
		{"match inside sentence", "What does indexing change about query plans?", "indexing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			areas := identifier.Identify("Databases", []models.QuizQuestion{missedQuestion(1, tt.question)})
			if len(areas) != 1 || areas[0] != tt.expected {
				t.Errorf("Identify(%q) = %v, expected [%q]", tt.question, areas, tt.expected)
			}
		})
	}
}

func TestKeywordIdentifierFallsBackToSnippet(t *testing.T) {
	identifier := NewKeywordIdentifier()

	areas := identifier.Identify("Databases", []models.QuizQuestion{
		missedQuestion(1, "Xyz qqq vvv www zzz plus?"),
	})
	if len(areas) != 1 || areas[0] != "Xyz qqq vvv www zzz" {
		t.Errorf("expected leading-words snippet, got %v", areas)
	}
}

func TestKeywordIdentifierCapsAndDedupes(t *testing.T) {
	identifier := NewKeywordIdentifier()

	missed := []models.QuizQuestion{
		missedQuestion(1, "How do transactions maintain isolation?"),
		missedQuestion(2, "Why do transactions need locks?"),
		missedQuestion(3, "What does indexing change about query plans?"),
		missedQuestion(4, "How do transactions maintain isolation?"),
	}

	areas := identifier.Identify("Databases", missed)
	if len(areas) != 2 {
		t.Fatalf("expected at most 2 areas, got %v", areas)
	}
	if areas[0] != "transactions" || areas[1] != "indexing" {
		t.Errorf("expected [transactions indexing], got %v", areas)
	}
}

func TestKeywordIdentifierExtraKeywordsTakePriority(t *testing.T) {
	identifier := NewKeywordIdentifier("kubernetes")

	areas := identifier.Identify("DevOps", []models.QuizQuestion{
		missedQuestion(1, "What is a kubernetes pod?"),
	})
	if len(areas) != 1 || areas[0] != "kubernetes" {
		t.Errorf("expected [kubernetes], got %v", areas)
	}
}

func TestKeywordIdentifierStableAcrossRuns(t *testing.T) {
	identifier := NewKeywordIdentifier()
	missed := []models.QuizQuestion{
		missedQuestion(1, "What does indexing change about query plans?"),
		missedQuestion(2, "How do transactions maintain isolation?"),
	}

	first := identifier.Identify("Databases", missed)
	for i := 0; i < 10; i++ {
		again := identifier.Identify("Databases", missed)
		if strings.Join(first, "|") != strings.Join(again, "|") {
			t.Fatalf("identification not stable: %v vs %v", first, again)
		}
	}
}

func TestBuildFeedbackPerfectScore(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	got := engine.buildFeedback("Databases", 100.0, nil)
	expected := "Excellent work! You scored 100.0% on Databases, keep up the great momentum."
	if got != expected {
		t.Errorf("buildFeedback = %q, expected %q", got, expected)
	}
}

func TestBuildFeedbackNamesWeakAreas(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	missed := []models.QuizQuestion{
		missedQuestion(1, "How do transactions maintain isolation?"),
		missedQuestion(2, "What does indexing change about query plans?"),
	}

	got := engine.buildFeedback("Databases", 33.3, missed)
	expected := "You scored 33.3% on Databases, focus your revision on transactions and indexing to improve further."
	if got != expected {
		t.Errorf("buildFeedback = %q, expected %q", got, expected)
	}
}

func TestBuildFeedbackWithoutIdentifiableAreas(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)

	missed := []models.QuizQuestion{missedQuestion(1, "")}
	got := engine.buildFeedback("Databases", 0.0, missed)
	expected := "You scored 0.0% on Databases, review the missed questions and try again."
	if got != expected {
		t.Errorf("buildFeedback = %q, expected %q", got, expected)
	}
}
