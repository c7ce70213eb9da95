package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type DocumentRepository interface {
	CreatePlaceholderDocument(ctx context.Context, topic, contentType string) (int, error)
}

// PostgresDocumentRepository manages the documents table. Quiz attempts
// reference a document row, so quizzes generated from a bare topic get a
// placeholder document.
type PostgresDocumentRepository struct {
	db *sql.DB
}

func NewPostgresDocumentRepository(databaseURL string) (*PostgresDocumentRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDocumentRepository{db: db}, nil
}

func (r *PostgresDocumentRepository) CreatePlaceholderDocument(ctx context.Context, topic, contentType string) (int, error) {
	media, err := json.Marshal(map[string]string{
		"content_type":  contentType,
		"generated_for": "quiz",
		"created_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal media payload: %w", err)
	}

	var docID int
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO documents (topic, resources, media) VALUES ($1, '[]'::jsonb, $2::jsonb) RETURNING doc_id`,
		truncate(topic, 255), media).Scan(&docID)
	if err != nil {
		return 0, fmt.Errorf("failed to create placeholder document: %w", err)
	}

	return docID, nil
}

func (r *PostgresDocumentRepository) Close() error {
	return r.db.Close()
}
