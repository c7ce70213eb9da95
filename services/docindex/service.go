package docindex

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service retrieves indexed document chunks for a set of topics. It backs
// document-sourced quiz generation when a request names topics instead of
// supplying extracted text.
type Service struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
	namespace string
}

func NewService(apiKey, openaiAPIKey, indexName string) (*Service, error) {
	log.Printf("[INFO] Initializing document index service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Service{
		client:    pc,
		embedder:  embedder,
		indexName: indexName,
		namespace: "studyhelper-docs",
	}, nil
}

// QueryTopicChunks returns up to limit content chunks relevant to the topics.
func (s *Service) QueryTopicChunks(ctx context.Context, topics []string, limit int) ([]string, error) {
	log.Printf("[INFO] Querying document index for topics: %v with limit: %d", topics, limit)

	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: s.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	var allChunks []string

	for _, topic := range topics {
		queryEmbeddings, err := s.embedder.EmbedDocuments(ctx, []string{topic})
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for topic '%s': %v", topic, err)
			continue
		}

		result, err := idxConn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          queryEmbeddings[0],
			TopK:            20,
			IncludeValues:   false,
			IncludeMetadata: true,
		})
		if err != nil {
			log.Printf("[ERROR] Failed to query vectors for topic '%s': %v", topic, err)
			continue
		}

		log.Printf("[INFO] Retrieved %d chunks for topic '%s'", len(result.Matches), topic)

		for _, match := range result.Matches {
			if match.Vector.Metadata == nil {
				continue
			}
			metadata := match.Vector.Metadata.AsMap()
			if content, ok := metadata["content"].(string); ok && content != "" {
				allChunks = append(allChunks, content)
			}
		}
	}

	if len(allChunks) == 0 {
		log.Printf("[WARN] No chunks found for topics: %v", topics)
		return []string{}, nil
	}

	shuffleStrings(allChunks)

	if len(allChunks) > limit {
		allChunks = allChunks[:limit]
	}

	log.Printf("[INFO] Returning %d document chunks", len(allChunks))
	return allChunks, nil
}

func shuffleStrings(slice []string) {
	for i := range slice {
		j := rand.Intn(i + 1)
		slice[i], slice[j] = slice[j], slice[i]
	}
}
