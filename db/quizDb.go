package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log"

	"studyhelper/errs"
	"studyhelper/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type QuizRepository interface {
	SaveQuiz(ctx context.Context, ownerID uuid.UUID, topic string, questions []models.CandidateQuestion) (quizID int, saved int, err error)
	GetQuizByID(ctx context.Context, id int) (*models.Quiz, error)
	DeleteQuiz(ctx context.Context, id int) error
}

type PostgresQuizRepository struct {
	db            *sql.DB
	questionMarks int
}

func NewPostgresQuizRepository(databaseURL string, questionMarks int) (*PostgresQuizRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if questionMarks <= 0 {
		questionMarks = 1
	}

	return &PostgresQuizRepository{db: db, questionMarks: questionMarks}, nil
}

// newQuizRepositoryForDB wires a repository onto an existing handle. Used by tests.
func newQuizRepositoryForDB(db *sql.DB, questionMarks int) *PostgresQuizRepository {
	return &PostgresQuizRepository{db: db, questionMarks: questionMarks}
}

// procedureResult is the jsonb payload returned by create_complete_quiz.
type procedureResult struct {
	Success        bool   `json:"success"`
	QuizID         int    `json:"quiz_id"`
	TotalQuestions int    `json:"total_questions"`
	Error          string `json:"error"`
}

// SaveQuiz persists a complete quiz with questions, options and links as a
// single atomic unit. It first tries the create_complete_quiz server-side
// procedure; if that call fails for any reason, the connection it ran on is
// rolled back and discarded before the explicit-transaction fallback runs on
// a fresh connection. The two strategies never run concurrently.
func (r *PostgresQuizRepository) SaveQuiz(ctx context.Context, ownerID uuid.UUID, topic string, questions []models.CandidateQuestion) (int, int, error) {
	if len(questions) == 0 {
		return 0, 0, errs.New(errs.ValidationFailed, "cannot save a quiz with no questions")
	}
	topic = truncate(topic, 255)

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, 0, errs.Wrap(errs.PersistenceFailed, err, "failed to acquire database connection")
	}

	quizID, err := r.saveQuizProcedure(ctx, conn, ownerID, topic, questions)
	if err == nil {
		conn.Close()
		log.Printf("[INFO] Saved quiz %d with %d questions via stored procedure", quizID, len(questions))
		return quizID, len(questions), nil
	}

	log.Printf("[WARN] Stored procedure path failed, switching to transactional fallback: %v", err)

	// The failed call may have left the connection inside an aborted
	// transaction that rejects every statement except ROLLBACK. Roll back
	// best-effort, then discard the connection outright; the fallback always
	// runs on a fresh one, regardless of what kind of error this was.
	if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
		log.Printf("[WARN] Rollback after procedure failure: %v", rbErr)
	}
	discardConn(conn)

	fresh, err := r.db.Conn(ctx)
	if err != nil {
		return 0, 0, errs.Wrap(errs.PersistenceFailed, err, "failed to acquire fresh connection for fallback")
	}
	defer fresh.Close()

	return r.saveQuizTransactional(ctx, fresh, ownerID, topic, questions)
}

// discardConn marks the underlying driver connection as bad so the pool
// closes it instead of recycling it. A poisoned connection must never be
// handed back out.
func discardConn(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

func (r *PostgresQuizRepository) saveQuizProcedure(ctx context.Context, conn *sql.Conn, ownerID uuid.UUID, topic string, questions []models.CandidateQuestion) (int, error) {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal questions: %w", err)
	}

	var resultJSON []byte
	row := conn.QueryRowContext(ctx,
		`SELECT create_complete_quiz($1, $2, $3::jsonb)`,
		ownerID, topic, questionsJSON)
	if err := row.Scan(&resultJSON); err != nil {
		return 0, fmt.Errorf("create_complete_quiz call failed: %w", err)
	}

	var result procedureResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return 0, fmt.Errorf("failed to decode procedure result: %w", err)
	}
	if !result.Success {
		return 0, fmt.Errorf("create_complete_quiz reported failure: %s", result.Error)
	}
	if result.TotalQuestions != len(questions) {
		return 0, fmt.Errorf("procedure saved %d questions, expected %d", result.TotalQuestions, len(questions))
	}

	return result.QuizID, nil
}

func (r *PostgresQuizRepository) saveQuizTransactional(ctx context.Context, conn *sql.Conn, ownerID uuid.UUID, topic string, questions []models.CandidateQuestion) (int, int, error) {
	// Defensive rollback in case the connection handed in is already inside
	// an aborted transaction from an unrelated prior error.
	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		log.Printf("[WARN] Defensive rollback before fallback transaction: %v", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, errs.Wrap(errs.TransactionAborted, err, "failed to begin fallback transaction")
	}

	var quizID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO quizzes (owner_id, topic) VALUES ($1, $2) RETURNING quiz_id`,
		ownerID, topic).Scan(&quizID)
	if err != nil {
		tx.Rollback()
		return 0, 0, errs.Wrap(errs.PersistenceFailed, err, "failed to create quiz row")
	}

	saved := 0
	for i, q := range questions {
		if err := r.insertQuestion(ctx, tx, quizID, i+1, q); err != nil {
			tx.Rollback()
			r.purgeQuiz(context.WithoutCancel(ctx), quizID)
			return 0, 0, errs.Wrap(errs.PersistenceFailed, err, "failed to save question %d", i+1)
		}
		saved++
	}

	if saved != len(questions) {
		tx.Rollback()
		r.purgeQuiz(context.WithoutCancel(ctx), quizID)
		return 0, 0, errs.New(errs.PersistenceFailed, "saved %d questions, expected %d", saved, len(questions))
	}

	if err := tx.Commit(); err != nil {
		r.purgeQuiz(context.WithoutCancel(ctx), quizID)
		return 0, 0, errs.Wrap(errs.PersistenceFailed, err, "failed to commit quiz transaction")
	}

	log.Printf("[INFO] Saved quiz %d with %d questions via fallback transaction", quizID, saved)
	return quizID, saved, nil
}

func (r *PostgresQuizRepository) insertQuestion(ctx context.Context, tx *sql.Tx, quizID, order int, q models.CandidateQuestion) error {
	var questionID int
	err := tx.QueryRowContext(ctx,
		`INSERT INTO questions (question_text) VALUES ($1) RETURNING question_id`,
		q.QuestionText).Scan(&questionID)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO options (question_id, option_a, option_b, option_c, option_d, correct_option)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		questionID, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption)
	if err != nil {
		return fmt.Errorf("failed to insert options: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quiz_questions (quiz_id, question_id, question_order, max_marks)
		 VALUES ($1, $2, $3, $4)`,
		quizID, questionID, order, r.questionMarks)
	if err != nil {
		return fmt.Errorf("failed to link question to quiz: %w", err)
	}

	return nil
}

// purgeQuiz removes whatever rows exist for a quiz. Best effort: purge
// failures are logged, never retried here.
func (r *PostgresQuizRepository) purgeQuiz(ctx context.Context, quizID int) {
	if err := r.deleteQuizRows(ctx, quizID); err != nil {
		log.Printf("[ERROR] Failed to purge partial rows for quiz %d: %v", quizID, err)
	}
}

func (r *PostgresQuizRepository) deleteQuizRows(ctx context.Context, quizID int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT question_id FROM quiz_questions WHERE quiz_id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("failed to collect question ids: %w", err)
	}
	var questionIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan question id: %w", err)
		}
		questionIDs = append(questionIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating question ids: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM options WHERE question_id = ANY($1)`, pq.Array(questionIDs)); err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM quiz_questions WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz question links: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM questions WHERE question_id = ANY($1)`, pq.Array(questionIDs)); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM quizzes WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

func (r *PostgresQuizRepository) GetQuizByID(ctx context.Context, id int) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := r.db.QueryRowContext(ctx,
		`SELECT quiz_id, owner_id, topic FROM quizzes WHERE quiz_id = $1`, id).
		Scan(&quiz.QuizID, &quiz.OwnerID, &quiz.Topic)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.New(errs.NotFound, "quiz with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT q.question_id, q.question_text,
		       o.option_a, o.option_b, o.option_c, o.option_d, o.correct_option,
		       qq.question_order, qq.max_marks
		FROM quiz_questions qq
		JOIN questions q ON q.question_id = qq.question_id
		JOIN options o ON o.question_id = qq.question_id
		WHERE qq.quiz_id = $1
		ORDER BY qq.question_order`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q models.QuizQuestion
		err := rows.Scan(&q.QuestionID, &q.QuestionText,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption,
			&q.QuestionOrder, &q.MaxMarks)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
		quiz.TotalMarks += q.MaxMarks
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quiz questions: %w", err)
	}

	quiz.TotalQuestions = len(quiz.Questions)
	return quiz, nil
}

func (r *PostgresQuizRepository) DeleteQuiz(ctx context.Context, id int) error {
	if err := r.deleteQuizRows(ctx, id); err != nil {
		return errs.Wrap(errs.PersistenceFailed, err, "failed to delete quiz %d", id)
	}
	return nil
}

func (r *PostgresQuizRepository) Close() error {
	return r.db.Close()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
