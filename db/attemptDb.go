package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"studyhelper/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type AttemptRepository interface {
	SaveAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.AttemptAnswer) error
	GetAttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error)
}

type PostgresAttemptRepository struct {
	db *sql.DB
}

func NewPostgresAttemptRepository(databaseURL string) (*PostgresAttemptRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresAttemptRepository{db: db}, nil
}

// SaveAttempt records one quiz attempt and its answers. A repeat attempt by
// the same user on the same quiz replaces the previous one rather than
// accumulating rows.
func (r *PostgresAttemptRepository) SaveAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.AttemptAnswer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin attempt transaction: %w", err)
	}

	var userQuizID int
	err = tx.QueryRowContext(ctx,
		`SELECT user_quiz_id FROM user_quizzes WHERE user_id = $1 AND quiz_id = $2 AND doc_id = $3`,
		attempt.UserID, attempt.QuizID, attempt.DocID).Scan(&userQuizID)

	switch {
	case err == sql.ErrNoRows:
		err = tx.QueryRowContext(ctx,
			`INSERT INTO user_quizzes (user_id, quiz_id, doc_id, taken_date, total_marks, score, percentage)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING user_quiz_id`,
			attempt.UserID, attempt.QuizID, attempt.DocID, attempt.TakenDate,
			attempt.TotalMarks, attempt.Score, attempt.Percentage).Scan(&userQuizID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert quiz attempt: %w", err)
		}
	case err != nil:
		tx.Rollback()
		return fmt.Errorf("failed to look up existing attempt: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE user_quizzes SET taken_date = $1, total_marks = $2, score = $3, percentage = $4
			 WHERE user_quiz_id = $5`,
			attempt.TakenDate, attempt.TotalMarks, attempt.Score, attempt.Percentage, userQuizID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update existing attempt: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM user_answers WHERE user_quiz_id = $1`, userQuizID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear previous answers: %w", err)
		}
	}

	for _, answer := range answers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_answers (user_quiz_id, question_id, selected_option, awarded_marks)
			 VALUES ($1, $2, $3, $4)`,
			userQuizID, answer.QuestionID, answer.SelectedOption, answer.AwardedMarks)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save answer for question %d: %w", answer.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attempt transaction: %w", err)
	}

	attempt.UserQuizID = userQuizID
	log.Printf("[INFO] Saved attempt %d for quiz %d (%d answers)", userQuizID, attempt.QuizID, len(answers))
	return nil
}

func (r *PostgresAttemptRepository) GetAttemptsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT uq.user_quiz_id, uq.user_id, uq.quiz_id, uq.doc_id, uq.taken_date,
		       uq.total_marks, uq.score, uq.percentage, qz.topic
		FROM user_quizzes uq
		JOIN quizzes qz ON qz.quiz_id = uq.quiz_id
		WHERE uq.user_id = $1
		ORDER BY uq.taken_date DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*models.QuizAttempt, 0)
	for rows.Next() {
		attempt := &models.QuizAttempt{}
		err := rows.Scan(&attempt.UserQuizID, &attempt.UserID, &attempt.QuizID, &attempt.DocID,
			&attempt.TakenDate, &attempt.TotalMarks, &attempt.Score, &attempt.Percentage, &attempt.Topic)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}

	return attempts, nil
}

func (r *PostgresAttemptRepository) Close() error {
	return r.db.Close()
}
