package models

import (
	"time"

	"github.com/google/uuid"
)

// CandidateQuestion is one question as returned by the generation service,
// pending structural validation. The jsonschema tags drive the response
// schema embedded in the generation prompt.
type CandidateQuestion struct {
	QuestionText  string `json:"question_text" jsonschema:"required,description=The question being asked"`
	OptionA       string `json:"option_a" jsonschema:"required,description=First answer option"`
	OptionB       string `json:"option_b" jsonschema:"required,description=Second answer option"`
	OptionC       string `json:"option_c" jsonschema:"required,description=Third answer option"`
	OptionD       string `json:"option_d" jsonschema:"required,description=Fourth answer option"`
	CorrectOption string `json:"correct_option" jsonschema:"required,enum=A,enum=B,enum=C,enum=D,description=Label of the correct option"`
	Explanation   string `json:"explanation,omitempty" jsonschema:"description=Brief explanation of why the correct option is correct"`
}

// GeneratedQuiz is a validated candidate question set ready for persistence.
type GeneratedQuiz struct {
	Topic     string              `json:"topic"`
	Questions []CandidateQuestion `json:"questions"`
}

type QuizQuestion struct {
	QuestionID    int    `json:"question_id" db:"question_id"`
	QuestionText  string `json:"question_text" db:"question_text"`
	OptionA       string `json:"option_a" db:"option_a"`
	OptionB       string `json:"option_b" db:"option_b"`
	OptionC       string `json:"option_c" db:"option_c"`
	OptionD       string `json:"option_d" db:"option_d"`
	CorrectOption string `json:"correct_option,omitempty" db:"correct_option"`
	QuestionOrder int    `json:"question_order" db:"question_order"`
	MaxMarks      int    `json:"max_marks" db:"max_marks"`
}

// OptionText returns the text behind a label, or "" for an unknown label.
func (q *QuizQuestion) OptionText(label string) string {
	switch label {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

type Quiz struct {
	QuizID         int            `json:"quiz_id" db:"quiz_id"`
	OwnerID        uuid.UUID      `json:"owner_id" db:"owner_id"`
	Topic          string         `json:"topic" db:"topic"`
	TotalQuestions int            `json:"total_questions"`
	TotalMarks     int            `json:"total_marks"`
	Questions      []QuizQuestion `json:"questions"`
}

type QuizAttempt struct {
	UserQuizID int       `json:"user_quiz_id" db:"user_quiz_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	QuizID     int       `json:"quiz_id" db:"quiz_id"`
	DocID      int       `json:"doc_id" db:"doc_id"`
	Topic      string    `json:"topic,omitempty"`
	TakenDate  time.Time `json:"taken_date" db:"taken_date"`
	TotalMarks int       `json:"total_marks" db:"total_marks"`
	Score      int       `json:"score" db:"score"`
	Percentage float64   `json:"percentage" db:"percentage"`
}

type AttemptAnswer struct {
	QuestionID     int    `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	AwardedMarks   int    `json:"awarded_marks"`
}

type QuizGenerateRequest struct {
	QuizType     string `json:"quiz_type"`
	Topic        string `json:"topic,omitempty"`
	Content      string `json:"content,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

type QuizGenerateResponse struct {
	QuizID         int    `json:"quiz_id"`
	Topic          string `json:"topic"`
	TotalQuestions int    `json:"total_questions"`
	DocID          int    `json:"doc_id,omitempty"`
	Message        string `json:"message"`
}

type SubmittedAnswer struct {
	QuestionID     int    `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

type QuizSubmissionRequest struct {
	QuizID  int               `json:"quiz_id"`
	UserID  string            `json:"user_id,omitempty"`
	DocID   int               `json:"doc_id,omitempty"`
	Answers []SubmittedAnswer `json:"answers"`
}
