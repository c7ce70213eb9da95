package models

// Per-question grading outcome labels used in detailed results.
const (
	AnswerStatusCorrect   = "Correct"
	AnswerStatusIncorrect = "Incorrect"
	AnswerStatusSkipped   = "Skipped"
)

type SubmissionSummary struct {
	TotalQuestions   int     `json:"total_questions"`
	CorrectAnswers   int     `json:"correct_answers"`
	IncorrectAnswers int     `json:"incorrect_answers"`
	Score            int     `json:"score"`
	TotalMarks       int     `json:"total_marks"`
	Percentage       float64 `json:"percentage"`
	Grade            string  `json:"grade"`
	Status           string  `json:"status"`
}

type QuestionResult struct {
	QuestionID    int               `json:"question_id"`
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option"`
	UserSelected  string            `json:"user_selected"`
	CorrectAnswer string            `json:"correct_answer"`
	UserAnswer    string            `json:"user_answer"`
	IsCorrect     bool              `json:"is_correct"`
	Status        string            `json:"status"`
	MarksAwarded  int               `json:"marks_awarded"`
	MaxMarks      int               `json:"max_marks"`
}

type Statistics struct {
	Accuracy           string `json:"accuracy"`
	QuestionsAttempted int    `json:"questions_attempted"`
	QuestionsSkipped   int    `json:"questions_skipped"`
}

// QuizReport is the deterministic output of grading one submission. It is
// recomputable from the stored quiz plus the submitted answers and is never
// mutated after assembly.
type QuizReport struct {
	QuizID              int               `json:"quiz_id"`
	UserQuizID          int               `json:"user_quiz_id,omitempty"`
	Topic               string            `json:"topic"`
	SubmissionSummary   SubmissionSummary `json:"submission_summary"`
	PerformanceFeedback string            `json:"performance_feedback"`
	DetailedResults     []QuestionResult  `json:"detailed_results"`
	Statistics          Statistics        `json:"statistics"`
}
