package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"studyhelper/models"

	"github.com/invopop/jsonschema"
)

const (
	GENERATION_SYSTEM_PROMPT = `You are an expert quiz generator. Always return valid JSON format with exactly the requested number of questions. Ensure questions are educational and test real understanding. Return only the JSON object, no surrounding text or markdown.`

	TOPIC_QUIZ_PROMPT = `Generate exactly %d multiple choice questions about "%s".

Requirements:
- Each question must have exactly 4 options (A, B, C, D)
- Only one correct answer per question
- Questions should be challenging but fair
- Cover different aspects of the topic
- Include a brief explanation for the correct answer

Your response must be a single JSON object matching this schema:
%s

Make sure to return exactly %d questions.`

	CONTENT_QUIZ_PROMPT = `Based on the following content, generate exactly %d multiple choice questions.

Content:
%s

Requirements:
- Each question must have exactly 4 options (A, B, C, D)
- Only one correct answer per question
- Questions should test understanding of the content
- Cover different parts of the material
- Include a brief explanation for the correct answer

Your response must be a single JSON object matching this schema:
%s

Make sure to return exactly %d questions.`
)

// contentCap bounds how much source text is embedded in a prompt.
const contentCap = 3000

var responseSchema = buildResponseSchema()

func buildResponseSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&models.GeneratedQuiz{})

	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Printf("[ERROR] Failed to marshal response schema: %v", err)
		return "{}"
	}
	return string(raw)
}

func buildPrompt(source Source, n int) string {
	if source.Content != "" {
		content := source.Content
		if len(content) > contentCap {
			content = content[:contentCap]
		}
		return fmt.Sprintf(CONTENT_QUIZ_PROMPT, n, content, responseSchema, n)
	}
	return fmt.Sprintf(TOPIC_QUIZ_PROMPT, n, source.Topic, responseSchema, n)
}

// cleanResponse strips markdown fences and isolates the outermost JSON
// object, since models occasionally wrap the payload in prose.
func cleanResponse(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}
	return strings.TrimSpace(cleaned)
}
