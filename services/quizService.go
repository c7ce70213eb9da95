package services

import (
	"context"
	"log"
	"strings"
	"time"

	"studyhelper/config"
	"studyhelper/db"
	"studyhelper/errs"
	"studyhelper/models"
	"studyhelper/services/generator"
	"studyhelper/services/grading"

	"github.com/google/uuid"
)

const (
	QuizTypeTopic    = "topic"
	QuizTypeDocument = "document"

	maxQuestionCount = 50
)

// ContentGenerator produces validated candidate question sets from a source.
type ContentGenerator interface {
	Generate(ctx context.Context, source generator.Source, n int) (*models.GeneratedQuiz, error)
}

// ChunkRetriever resolves topics to indexed document content.
type ChunkRetriever interface {
	QueryTopicChunks(ctx context.Context, topics []string, limit int) ([]string, error)
}

type QuizService struct {
	generator     ContentGenerator
	quizRepo      db.QuizRepository
	attemptRepo   db.AttemptRepository
	docRepo       db.DocumentRepository
	docindex      ChunkRetriever
	engine        *grading.Engine
	defaultUserID uuid.UUID
	questionCount int
}

// NewQuizService wires the generation, persistence and grading components.
// docindex may be nil when no document index is configured.
func NewQuizService(gen ContentGenerator, quizRepo db.QuizRepository, attemptRepo db.AttemptRepository,
	docRepo db.DocumentRepository, docindex ChunkRetriever, cfg *config.Config) *QuizService {

	defaultUserID, err := uuid.Parse(cfg.DefaultUserID)
	if err != nil && cfg.DefaultUserID != "" {
		log.Printf("[WARN] Invalid DEFAULT_USER_ID %q: %v", cfg.DefaultUserID, err)
	}

	questionCount := cfg.QuestionCount
	if questionCount <= 0 {
		questionCount = config.DefaultQuestionCount
	}

	return &QuizService{
		generator:     gen,
		quizRepo:      quizRepo,
		attemptRepo:   attemptRepo,
		docRepo:       docRepo,
		docindex:      docindex,
		engine:        grading.NewEngine(grading.Config{PassThreshold: cfg.PassThreshold}, nil),
		defaultUserID: defaultUserID,
		questionCount: questionCount,
	}
}

// GenerateQuiz runs the full generation pipeline: resolve the content
// source, call the generation service, then persist the validated set
// atomically. No database connection is held while waiting on generation.
func (s *QuizService) GenerateQuiz(ctx context.Context, req *models.QuizGenerateRequest) (*models.QuizGenerateResponse, error) {
	if err := s.validateGenerateRequest(req); err != nil {
		log.Printf("[ERROR] Quiz generation validation failed: %v", err)
		return nil, err
	}

	n := req.NumQuestions
	if n <= 0 {
		n = s.questionCount
	}

	source, err := s.resolveSource(ctx, req, n)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Generating %d questions (type=%s, topic=%q)", n, req.QuizType, req.Topic)
	generated, err := s.generator.Generate(ctx, source, n)
	if err != nil {
		log.Printf("[ERROR] Quiz generation failed: %v", err)
		return nil, err
	}

	ownerID := s.resolveUserID(req.UserID)
	quizID, saved, err := s.quizRepo.SaveQuiz(ctx, ownerID, generated.Topic, generated.Questions)
	if err != nil {
		log.Printf("[ERROR] Failed to persist generated quiz: %v", err)
		return nil, err
	}

	docID := 0
	if s.docRepo != nil {
		docID, err = s.docRepo.CreatePlaceholderDocument(ctx, generated.Topic, "quiz_generated")
		if err != nil {
			log.Printf("[WARN] Failed to create placeholder document: %v", err)
		}
	}

	log.Printf("[INFO] Successfully created quiz %d with %d questions", quizID, saved)
	return &models.QuizGenerateResponse{
		QuizID:         quizID,
		Topic:          generated.Topic,
		TotalQuestions: saved,
		DocID:          docID,
		Message:        "Quiz generated successfully",
	}, nil
}

// GetQuizForTaking returns a quiz with the answer key stripped.
func (s *QuizService) GetQuizForTaking(ctx context.Context, id int) (*models.Quiz, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	for i := range quiz.Questions {
		quiz.Questions[i].CorrectOption = ""
	}
	return quiz, nil
}

// SubmitQuiz grades the submitted answers against the stored quiz and
// returns the full report. The attempt record is written best-effort; a
// recording failure is logged but never changes or withholds the report.
func (s *QuizService) SubmitQuiz(ctx context.Context, req *models.QuizSubmissionRequest) (*models.QuizReport, error) {
	if req == nil || req.QuizID <= 0 {
		return nil, errs.New(errs.ValidationFailed, "a valid quiz_id is required")
	}

	quiz, err := s.getQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	answers := make(map[int]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[a.QuestionID] = a.SelectedOption
	}

	report, err := s.engine.Grade(quiz, answers)
	if err != nil {
		log.Printf("[ERROR] Grading failed for quiz %d: %v", req.QuizID, err)
		return nil, err
	}

	s.recordAttempt(ctx, req, quiz, report)

	log.Printf("[INFO] Graded submission for quiz %d: %d/%d (%.1f%%)",
		quiz.QuizID, report.SubmissionSummary.Score, report.SubmissionSummary.TotalMarks,
		report.SubmissionSummary.Percentage)
	return report, nil
}

func (s *QuizService) GetUserAttempts(ctx context.Context, userID string, limit int) ([]*models.QuizAttempt, error) {
	if s.attemptRepo == nil {
		return []*models.QuizAttempt{}, nil
	}
	return s.attemptRepo.GetAttemptsByUser(ctx, s.resolveUserID(userID), limit)
}

func (s *QuizService) DeleteQuiz(ctx context.Context, id int) error {
	if id <= 0 {
		return errs.New(errs.ValidationFailed, "invalid quiz ID: %d", id)
	}
	return s.quizRepo.DeleteQuiz(ctx, id)
}

func (s *QuizService) getQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	if id <= 0 {
		return nil, errs.New(errs.ValidationFailed, "invalid quiz ID: %d", id)
	}
	quiz, err := s.quizRepo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, errs.New(errs.InconsistentQuizState, "quiz %d has no questions", id)
	}
	return quiz, nil
}

func (s *QuizService) recordAttempt(ctx context.Context, req *models.QuizSubmissionRequest, quiz *models.Quiz, report *models.QuizReport) {
	if s.attemptRepo == nil {
		return
	}

	docID := req.DocID
	if docID <= 0 && s.docRepo != nil {
		id, err := s.docRepo.CreatePlaceholderDocument(ctx, quiz.Topic, "quiz_submission")
		if err != nil {
			log.Printf("[WARN] Failed to create placeholder document for attempt: %v", err)
		} else {
			docID = id
		}
	}

	answers := make([]models.AttemptAnswer, 0, len(report.DetailedResults))
	for _, result := range report.DetailedResults {
		if result.UserSelected == "" {
			continue
		}
		answers = append(answers, models.AttemptAnswer{
			QuestionID:     result.QuestionID,
			SelectedOption: result.UserSelected,
			AwardedMarks:   result.MarksAwarded,
		})
	}

	attempt := &models.QuizAttempt{
		UserID:     s.resolveUserID(req.UserID),
		QuizID:     quiz.QuizID,
		DocID:      docID,
		TakenDate:  time.Now().UTC(),
		TotalMarks: report.SubmissionSummary.TotalMarks,
		Score:      report.SubmissionSummary.Score,
		Percentage: report.SubmissionSummary.Percentage,
	}

	if err := s.attemptRepo.SaveAttempt(ctx, attempt, answers); err != nil {
		log.Printf("[ERROR] Failed to record quiz attempt: %v", err)
		return
	}
	report.UserQuizID = attempt.UserQuizID
}

func (s *QuizService) resolveSource(ctx context.Context, req *models.QuizGenerateRequest, n int) (generator.Source, error) {
	switch req.QuizType {
	case QuizTypeTopic:
		return generator.Source{Topic: strings.TrimSpace(req.Topic)}, nil

	case QuizTypeDocument:
		content := strings.TrimSpace(req.Content)
		if content != "" {
			return generator.Source{Topic: req.Topic, Content: content}, nil
		}
		if s.docindex == nil || strings.TrimSpace(req.Topic) == "" {
			return generator.Source{}, errs.New(errs.ValidationFailed,
				"content is required for document-based quiz")
		}

		chunks, err := s.docindex.QueryTopicChunks(ctx, []string{req.Topic}, n+5)
		if err != nil {
			return generator.Source{}, errs.Wrap(errs.SourceUnavailable, err,
				"failed to retrieve document content for topic %q", req.Topic)
		}
		if len(chunks) == 0 {
			return generator.Source{}, errs.New(errs.ValidationFailed,
				"no indexed content found for topic %q", req.Topic)
		}
		return generator.Source{
			Topic:   req.Topic,
			Content: strings.Join(chunks, "\n\n"),
		}, nil

	default:
		return generator.Source{}, errs.New(errs.ValidationFailed,
			"invalid quiz_type %q, use %q or %q", req.QuizType, QuizTypeTopic, QuizTypeDocument)
	}
}

func (s *QuizService) resolveUserID(raw string) uuid.UUID {
	if raw == "" {
		return s.defaultUserID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("[WARN] Invalid user id %q, falling back to default identity", raw)
		return s.defaultUserID
	}
	return id
}

func (s *QuizService) validateGenerateRequest(req *models.QuizGenerateRequest) error {
	if req == nil {
		return errs.New(errs.ValidationFailed, "request cannot be nil")
	}
	if req.NumQuestions < 0 || req.NumQuestions > maxQuestionCount {
		return errs.New(errs.ValidationFailed,
			"num_questions must be between 0 and %d (0 applies the default)", maxQuestionCount)
	}
	if req.QuizType == QuizTypeTopic && strings.TrimSpace(req.Topic) == "" {
		return errs.New(errs.ValidationFailed, "topic is required for topic-based quiz")
	}
	if req.QuizType != QuizTypeTopic && req.QuizType != QuizTypeDocument {
		return errs.New(errs.ValidationFailed,
			"invalid quiz_type %q, use %q or %q", req.QuizType, QuizTypeTopic, QuizTypeDocument)
	}
	return nil
}
