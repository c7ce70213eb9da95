package grading

import (
	"fmt"
	"math"

	"studyhelper/errs"
	"studyhelper/models"

	"github.com/samber/lo"
)

// Grade and status labels applied from the percentage threshold table.
const (
	GradeExcellent        = "Excellent"
	GradeGood             = "Good"
	GradeNeedsImprovement = "Needs Improvement"

	StatusPassed = "Passed"
	StatusFailed = "Failed"
)

type Config struct {
	// PassThreshold is the minimum percentage counted as a pass.
	PassThreshold float64
}

func DefaultConfig() Config {
	return Config{PassThreshold: 50.0}
}

// Engine grades submissions against stored quizzes. Grading is a pure
// computation: no storage, no network, and identical inputs always produce
// an identical report.
type Engine struct {
	cfg       Config
	weakAreas WeakAreaIdentifier
}

// NewEngine builds an engine from cfg. A zero PassThreshold is honored and
// means every submission passes; a negative one falls back to the default.
func NewEngine(cfg Config, weakAreas WeakAreaIdentifier) *Engine {
	if cfg.PassThreshold < 0 {
		cfg.PassThreshold = DefaultConfig().PassThreshold
	}
	if weakAreas == nil {
		weakAreas = NewKeywordIdentifier()
	}
	return &Engine{cfg: cfg, weakAreas: weakAreas}
}

// Grade reconciles submitted answers against the quiz answer key and builds
// the full report. Unanswered questions are incorrect and counted as skipped;
// a wrong label is incorrect and counted as attempted.
func (e *Engine) Grade(quiz *models.Quiz, answers map[int]string) (*models.QuizReport, error) {
	if quiz == nil {
		return nil, errs.New(errs.ValidationFailed, "quiz is required for grading")
	}

	results := make([]models.QuestionResult, 0, len(quiz.Questions))
	var missed []models.QuizQuestion
	score := 0
	totalMarks := 0
	correct := 0
	attempted := 0

	for _, q := range quiz.Questions {
		if err := checkQuestionState(&q); err != nil {
			return nil, err
		}

		selected := answers[q.QuestionID]
		isCorrect := selected == q.CorrectOption
		marksAwarded := 0
		if isCorrect {
			marksAwarded = q.MaxMarks
			correct++
		} else {
			missed = append(missed, q)
		}

		status := models.AnswerStatusSkipped
		userAnswer := "Not Answered"
		if selected != "" {
			attempted++
			userAnswer = fmt.Sprintf("%s: %s", selected, q.OptionText(selected))
			if isCorrect {
				status = models.AnswerStatusCorrect
			} else {
				status = models.AnswerStatusIncorrect
			}
		}

		score += marksAwarded
		totalMarks += q.MaxMarks

		results = append(results, models.QuestionResult{
			QuestionID:   q.QuestionID,
			QuestionText: q.QuestionText,
			Options: map[string]string{
				"A": q.OptionA,
				"B": q.OptionB,
				"C": q.OptionC,
				"D": q.OptionD,
			},
			CorrectOption: q.CorrectOption,
			UserSelected:  selected,
			CorrectAnswer: fmt.Sprintf("%s: %s", q.CorrectOption, q.OptionText(q.CorrectOption)),
			UserAnswer:    userAnswer,
			IsCorrect:     isCorrect,
			Status:        status,
			MarksAwarded:  marksAwarded,
			MaxMarks:      q.MaxMarks,
		})
	}

	total := len(quiz.Questions)
	percentage := Percentage(score, totalMarks)

	report := &models.QuizReport{
		QuizID: quiz.QuizID,
		Topic:  quiz.Topic,
		SubmissionSummary: models.SubmissionSummary{
			TotalQuestions:   total,
			CorrectAnswers:   correct,
			IncorrectAnswers: total - correct,
			Score:            score,
			TotalMarks:       totalMarks,
			Percentage:       percentage,
			Grade:            gradeFor(percentage),
			Status:           e.statusFor(percentage),
		},
		PerformanceFeedback: e.buildFeedback(quiz.Topic, percentage, missed),
		DetailedResults:     results,
		Statistics: models.Statistics{
			Accuracy:           fmt.Sprintf("%.1f%%", percentage),
			QuestionsAttempted: attempted,
			QuestionsSkipped:   total - attempted,
		},
	}

	return report, nil
}

func checkQuestionState(q *models.QuizQuestion) error {
	if !lo.Contains([]string{"A", "B", "C", "D"}, q.CorrectOption) {
		return errs.New(errs.InconsistentQuizState,
			"question %d has invalid correct option %q", q.QuestionID, q.CorrectOption)
	}
	options := []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
	if lo.SomeBy(options, func(opt string) bool { return opt == "" }) {
		return errs.New(errs.InconsistentQuizState,
			"question %d is missing option text", q.QuestionID)
	}
	return nil
}

// Percentage computes 100*score/totalMarks rounded to one decimal place.
// A zero-mark quiz grades to 0 rather than dividing by zero.
func Percentage(score, totalMarks int) float64 {
	if totalMarks == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(totalMarks)*1000) / 10
}

func gradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return GradeExcellent
	case percentage >= 70:
		return GradeGood
	default:
		return GradeNeedsImprovement
	}
}

func (e *Engine) statusFor(percentage float64) string {
	if percentage >= e.cfg.PassThreshold {
		return StatusPassed
	}
	return StatusFailed
}
