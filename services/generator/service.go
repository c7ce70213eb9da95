package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"studyhelper/config"
	"studyhelper/errs"
	"studyhelper/models"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var validLabels = []string{"A", "B", "C", "D"}

// Service calls the external generation model and turns its free-form output
// into a validated candidate question set. It never touches storage.
type Service struct {
	llm     llms.Model
	retries int
	timeout time.Duration
}

func NewService(apiKey string, retries int, timeout time.Duration) (*Service, error) {
	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return newServiceForModel(llm, retries, timeout), nil
}

func newServiceForModel(llm llms.Model, retries int, timeout time.Duration) *Service {
	if retries < 0 {
		retries = 0
	}
	if timeout <= 0 {
		timeout = config.DefaultGenerationTimeout
	}
	return &Service{llm: llm, retries: retries, timeout: timeout}
}

// Source names the material a quiz is generated from: a bare topic label, or
// extracted document content (content wins when both are set).
type Source struct {
	Topic   string
	Content string
}

// Generate produces exactly n validated questions or fails. Each attempt is
// bounded by the configured timeout so a stalled provider cannot hang the
// caller. Service errors and malformed responses are retried up to the
// configured bound; a response that parses but fails semantic validation is
// surfaced immediately.
func (s *Service) Generate(ctx context.Context, source Source, n int) (*models.GeneratedQuiz, error) {
	if n <= 0 {
		return nil, errs.New(errs.ValidationFailed, "question count must be greater than 0")
	}
	if strings.TrimSpace(source.Topic) == "" && strings.TrimSpace(source.Content) == "" {
		return nil, errs.New(errs.ValidationFailed, "a topic or content source is required")
	}

	prompt := buildPrompt(source, n)
	attempts := s.retries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation aborted: %w", err)
		}

		log.Printf("[INFO] Calling generation service (attempt %d/%d)", attempt, attempts)
		completion, err := s.complete(ctx, prompt)
		if err != nil {
			lastErr = errs.Wrap(errs.SourceUnavailable, err, "generation service call failed")
			log.Printf("[ERROR] Generation attempt %d failed: %v", attempt, err)
			continue
		}

		quiz, err := s.parseResponse(completion, source, n)
		if err != nil {
			if errs.IsKind(err, errs.ValidationFailed) {
				log.Printf("[ERROR] Generated questions failed validation: %v", err)
				return nil, err
			}
			lastErr = err
			log.Printf("[ERROR] Generation attempt %d produced unusable output: %v", attempt, err)
			continue
		}

		log.Printf("[INFO] Successfully generated %d questions for topic %q", len(quiz.Questions), quiz.Topic)
		return quiz, nil
	}

	return nil, lastErr
}

// complete runs one model call with the system role set and the per-attempt
// deadline applied.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.GenerateContent(attemptCtx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, GENERATION_SYSTEM_PROMPT),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0.7))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func (s *Service) parseResponse(completion string, source Source, n int) (*models.GeneratedQuiz, error) {
	cleaned := cleanResponse(completion)

	var quiz models.GeneratedQuiz
	if err := json.Unmarshal([]byte(cleaned), &quiz); err != nil {
		return nil, errs.Wrap(errs.MalformedGeneration, err, "response is not valid JSON")
	}

	if err := validateQuestions(quiz.Questions, n); err != nil {
		return nil, err
	}

	if strings.TrimSpace(quiz.Topic) == "" {
		quiz.Topic = source.Topic
		if quiz.Topic == "" {
			quiz.Topic = "Generated Quiz"
		}
	}

	return &quiz, nil
}

func validateQuestions(questions []models.CandidateQuestion, n int) error {
	if len(questions) != n {
		return errs.New(errs.ValidationFailed, "expected %d questions, got %d", n, len(questions))
	}

	for i, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			return errs.New(errs.ValidationFailed, "question %d has empty text", i+1)
		}

		options := []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
		if lo.SomeBy(options, func(opt string) bool { return strings.TrimSpace(opt) == "" }) {
			return errs.New(errs.ValidationFailed, "question %d has an empty option", i+1)
		}

		if !lo.Contains(validLabels, q.CorrectOption) {
			return errs.New(errs.ValidationFailed, "question %d has invalid correct_option: %q", i+1, q.CorrectOption)
		}
	}

	return nil
}
