package services

import (
	"context"
	"strings"
	"testing"

	"studyhelper/config"
	"studyhelper/errs"
	"studyhelper/models"
	"studyhelper/services/generator"

	"github.com/google/uuid"
)

type stubGenerator struct {
	quiz       *models.GeneratedQuiz
	err        error
	lastSource generator.Source
	lastN      int
}

func (s *stubGenerator) Generate(ctx context.Context, source generator.Source, n int) (*models.GeneratedQuiz, error) {
	s.lastSource = source
	s.lastN = n
	if s.err != nil {
		return nil, s.err
	}
	return s.quiz, nil
}

type stubQuizRepo struct {
	quiz       *models.Quiz
	saveErr    error
	savedOwner uuid.UUID
	savedTopic string
	savedCount int
	deleted    []int
}

func (s *stubQuizRepo) SaveQuiz(ctx context.Context, ownerID uuid.UUID, topic string, questions []models.CandidateQuestion) (int, int, error) {
	if s.saveErr != nil {
		return 0, 0, s.saveErr
	}
	s.savedOwner = ownerID
	s.savedTopic = topic
	s.savedCount = len(questions)
	return 77, len(questions), nil
}

func (s *stubQuizRepo) GetQuizByID(ctx context.Context, id int) (*models.Quiz, error) {
	if s.quiz == nil {
		return nil, errs.New(errs.NotFound, "quiz with id %d not found", id)
	}
	cp := *s.quiz
	cp.Questions = append([]models.QuizQuestion(nil), s.quiz.Questions...)
	return &cp, nil
}

func (s *stubQuizRepo) DeleteQuiz(ctx context.Context, id int) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubAttemptRepo struct {
	saveErr      error
	saved        *models.QuizAttempt
	savedAnswers []models.AttemptAnswer
	lastUserID   uuid.UUID
}

func (s *stubAttemptRepo) SaveAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.AttemptAnswer) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = attempt
	s.savedAnswers = answers
	attempt.UserQuizID = 55
	return nil
}

func (s *stubAttemptRepo) GetAttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	s.lastUserID = userID
	return []*models.QuizAttempt{}, nil
}

type stubDocRepo struct {
	docID int
	err   error
}

func (s *stubDocRepo) CreatePlaceholderDocument(ctx context.Context, topic, contentType string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.docID, nil
}

type stubRetriever struct {
	chunks []string
	err    error
}

func (s *stubRetriever) QueryTopicChunks(ctx context.Context, topics []string, limit int) ([]string, error) {
	return s.chunks, s.err
}

const testUserID = "6f1e1d3a-9f3e-4f0a-8a64-2b7c3d9e5f10"

func testConfig() *config.Config {
	return &config.Config{
		DefaultUserID: testUserID,
		QuestionCount: 3,
		PassThreshold: 50.0,
	}
}

func generatedQuiz(topic string, n int) *models.GeneratedQuiz {
	quiz := &models.GeneratedQuiz{Topic: topic}
	for i := 0; i < n; i++ {
		quiz.Questions = append(quiz.Questions, models.CandidateQuestion{
			QuestionText:  "Question?",
			OptionA:       "Alpha",
			OptionB:       "Beta",
			OptionC:       "Gamma",
			OptionD:       "Delta",
			CorrectOption: "A",
		})
	}
	return quiz
}

func storedQuiz() *models.Quiz {
	return &models.Quiz{
		QuizID: 77,
		Topic:  "Databases",
		Questions: []models.QuizQuestion{
			{QuestionID: 1, QuestionText: "First?", OptionA: "Alpha", OptionB: "Beta",
				OptionC: "Gamma", OptionD: "Delta", CorrectOption: "A", MaxMarks: 1},
			{QuestionID: 2, QuestionText: "Second?", OptionA: "Alpha", OptionB: "Beta",
				OptionC: "Gamma", OptionD: "Delta", CorrectOption: "B", MaxMarks: 1},
		},
	}
}

func TestGenerateQuizTopicFlow(t *testing.T) {
	gen := &stubGenerator{quiz: generatedQuiz("Go Concurrency", 2)}
	quizRepo := &stubQuizRepo{}
	docRepo := &stubDocRepo{docID: 12}
	svc := NewQuizService(gen, quizRepo, &stubAttemptRepo{}, docRepo, nil, testConfig())

	resp, err := svc.GenerateQuiz(context.Background(), &models.QuizGenerateRequest{
		QuizType:     QuizTypeTopic,
		Topic:        "Go Concurrency",
		NumQuestions: 2,
		UserID:       testUserID,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz returned error: %v", err)
	}

	if resp.QuizID != 77 || resp.TotalQuestions != 2 || resp.DocID != 12 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if gen.lastSource.Topic != "Go Concurrency" || gen.lastSource.Content != "" {
		t.Errorf("unexpected generation source: %+v", gen.lastSource)
	}
	if gen.lastN != 2 {
		t.Errorf("expected 2 questions requested, got %d", gen.lastN)
	}
	if quizRepo.savedOwner.String() != testUserID {
		t.Errorf("expected owner %s, got %s", testUserID, quizRepo.savedOwner)
	}
}

func TestGenerateQuizDefaultsQuestionCount(t *testing.T) {
	gen := &stubGenerator{quiz: generatedQuiz("Topic", 3)}
	svc := NewQuizService(gen, &stubQuizRepo{}, &stubAttemptRepo{}, &stubDocRepo{}, nil, testConfig())

	_, err := svc.GenerateQuiz(context.Background(), &models.QuizGenerateRequest{
		QuizType: QuizTypeTopic,
		Topic:    "Topic",
	})
	if err != nil {
		t.Fatalf("GenerateQuiz returned error: %v", err)
	}
	if gen.lastN != 3 {
		t.Errorf("expected configured default of 3 questions, got %d", gen.lastN)
	}
}

func TestGenerateQuizValidation(t *testing.T) {
	svc := NewQuizService(&stubGenerator{}, &stubQuizRepo{}, &stubAttemptRepo{}, &stubDocRepo{}, nil, testConfig())

	tests := []struct {
		name string
		req  *models.QuizGenerateRequest
	}{
		{"unknown type", &models.QuizGenerateRequest{QuizType: "essay", Topic: "X"}},
		{"topic missing", &models.QuizGenerateRequest{QuizType: QuizTypeTopic}},
		{"negative question count", &models.QuizGenerateRequest{QuizType: QuizTypeTopic, Topic: "X", NumQuestions: -1}},
		{"too many questions", &models.QuizGenerateRequest{QuizType: QuizTypeTopic, Topic: "X", NumQuestions: 999}},
		{"document without content", &models.QuizGenerateRequest{QuizType: QuizTypeDocument, Topic: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateQuiz(context.Background(), tt.req)
			if !errs.IsKind(err, errs.ValidationFailed) {
				t.Errorf("expected ValidationFailed, got %v", err)
			}
		})
	}

	// Zero is accepted and defaulted, so the range error must name 0 as the
	// lower bound.
	_, err := svc.GenerateQuiz(context.Background(), &models.QuizGenerateRequest{
		QuizType: QuizTypeTopic, Topic: "X", NumQuestions: -1,
	})
	if err == nil || !strings.Contains(err.Error(), "between 0 and") {
		t.Errorf("range error should state the accepted bounds, got %v", err)
	}
}

func TestGenerateQuizDocumentUsesIndex(t *testing.T) {
	gen := &stubGenerator{quiz: generatedQuiz("Indexed Topic", 2)}
	retriever := &stubRetriever{chunks: []string{"chunk one", "chunk two"}}
	svc := NewQuizService(gen, &stubQuizRepo{}, &stubAttemptRepo{}, &stubDocRepo{}, retriever, testConfig())

	_, err := svc.GenerateQuiz(context.Background(), &models.QuizGenerateRequest{
		QuizType:     QuizTypeDocument,
		Topic:        "Indexed Topic",
		NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz returned error: %v", err)
	}

	if !strings.Contains(gen.lastSource.Content, "chunk one") || !strings.Contains(gen.lastSource.Content, "chunk two") {
		t.Errorf("expected retrieved chunks in generation source, got %q", gen.lastSource.Content)
	}
}

func TestGenerateQuizDocumentInlineContentWins(t *testing.T) {
	gen := &stubGenerator{quiz: generatedQuiz("T", 1)}
	retriever := &stubRetriever{chunks: []string{"should not be used"}}
	svc := NewQuizService(gen, &stubQuizRepo{}, &stubAttemptRepo{}, &stubDocRepo{}, retriever, testConfig())

	_, err := svc.GenerateQuiz(context.Background(), &models.QuizGenerateRequest{
		QuizType:     QuizTypeDocument,
		Topic:        "T",
		Content:      "inline material",
		NumQuestions: 1,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz returned error: %v", err)
	}
	if gen.lastSource.Content != "inline material" {
		t.Errorf("expected inline content to take priority, got %q", gen.lastSource.Content)
	}
}

func TestGetQuizForTakingStripsAnswerKey(t *testing.T) {
	quizRepo := &stubQuizRepo{quiz: storedQuiz()}
	svc := NewQuizService(&stubGenerator{}, quizRepo, &stubAttemptRepo{}, &stubDocRepo{}, nil, testConfig())

	quiz, err := svc.GetQuizForTaking(context.Background(), 77)
	if err != nil {
		t.Fatalf("GetQuizForTaking returned error: %v", err)
	}

	for _, q := range quiz.Questions {
		if q.CorrectOption != "" {
			t.Errorf("question %d still carries the answer key", q.QuestionID)
		}
	}
	if quizRepo.quiz.Questions[0].CorrectOption != "A" {
		t.Error("stripping must not mutate the stored quiz")
	}
}

func TestSubmitQuizReturnsReportAndRecordsAttempt(t *testing.T) {
	quizRepo := &stubQuizRepo{quiz: storedQuiz()}
	attemptRepo := &stubAttemptRepo{}
	svc := NewQuizService(&stubGenerator{}, quizRepo, attemptRepo, &stubDocRepo{docID: 4}, nil, testConfig())

	report, err := svc.SubmitQuiz(context.Background(), &models.QuizSubmissionRequest{
		QuizID: 77,
		UserID: testUserID,
		Answers: []models.SubmittedAnswer{
			{QuestionID: 1, SelectedOption: "A"},
			{QuestionID: 2, SelectedOption: "C"},
		},
	})
	if err != nil {
		t.Fatalf("SubmitQuiz returned error: %v", err)
	}

	if report.SubmissionSummary.Score != 1 || report.SubmissionSummary.TotalMarks != 2 {
		t.Errorf("unexpected summary: %+v", report.SubmissionSummary)
	}
	if report.UserQuizID != 55 {
		t.Errorf("expected attempt id 55 on report, got %d", report.UserQuizID)
	}
	if attemptRepo.saved == nil {
		t.Fatal("expected attempt to be recorded")
	}
	if attemptRepo.saved.Score != 1 || attemptRepo.saved.DocID != 4 {
		t.Errorf("unexpected recorded attempt: %+v", attemptRepo.saved)
	}
	if len(attemptRepo.savedAnswers) != 2 {
		t.Errorf("expected 2 recorded answers, got %d", len(attemptRepo.savedAnswers))
	}
}

func TestSubmitQuizSkippedAnswersNotRecorded(t *testing.T) {
	quizRepo := &stubQuizRepo{quiz: storedQuiz()}
	attemptRepo := &stubAttemptRepo{}
	svc := NewQuizService(&stubGenerator{}, quizRepo, attemptRepo, &stubDocRepo{docID: 4}, nil, testConfig())

	_, err := svc.SubmitQuiz(context.Background(), &models.QuizSubmissionRequest{
		QuizID:  77,
		Answers: []models.SubmittedAnswer{{QuestionID: 1, SelectedOption: "A"}},
	})
	if err != nil {
		t.Fatalf("SubmitQuiz returned error: %v", err)
	}
	if len(attemptRepo.savedAnswers) != 1 {
		t.Errorf("expected only the answered question recorded, got %d", len(attemptRepo.savedAnswers))
	}
}

func TestSubmitQuizAttemptFailureStillReturnsReport(t *testing.T) {
	quizRepo := &stubQuizRepo{quiz: storedQuiz()}
	attemptRepo := &stubAttemptRepo{saveErr: errs.New(errs.PersistenceFailed, "disk full")}
	svc := NewQuizService(&stubGenerator{}, quizRepo, attemptRepo, &stubDocRepo{}, nil, testConfig())

	report, err := svc.SubmitQuiz(context.Background(), &models.QuizSubmissionRequest{
		QuizID:  77,
		Answers: []models.SubmittedAnswer{{QuestionID: 1, SelectedOption: "A"}},
	})
	if err != nil {
		t.Fatalf("report must survive an attempt-recording failure, got: %v", err)
	}
	if report.UserQuizID != 0 {
		t.Errorf("expected no attempt id when recording failed, got %d", report.UserQuizID)
	}
}

func TestSubmitQuizUnknownQuiz(t *testing.T) {
	svc := NewQuizService(&stubGenerator{}, &stubQuizRepo{}, &stubAttemptRepo{}, &stubDocRepo{}, nil, testConfig())

	_, err := svc.SubmitQuiz(context.Background(), &models.QuizSubmissionRequest{QuizID: 404})
	if !errs.IsKind(err, errs.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetUserAttemptsFallsBackToDefaultIdentity(t *testing.T) {
	attemptRepo := &stubAttemptRepo{}
	svc := NewQuizService(&stubGenerator{}, &stubQuizRepo{}, attemptRepo, &stubDocRepo{}, nil, testConfig())

	if _, err := svc.GetUserAttempts(context.Background(), "not-a-uuid", 10); err != nil {
		t.Fatalf("GetUserAttempts returned error: %v", err)
	}
	if attemptRepo.lastUserID.String() != testUserID {
		t.Errorf("expected default identity, got %s", attemptRepo.lastUserID)
	}
}
