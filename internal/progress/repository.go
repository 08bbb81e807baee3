package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Repository persists attempts and lesson progress.
type Repository interface {
	SaveAttempt(ctx context.Context, a Attempt) error
	Counts(ctx context.Context, userID int64, itemID string) (Counts, error)
	GetProgress(ctx context.Context, userID int64, itemID string) (LessonProgress, error)
	SaveProgress(ctx context.Context, lp LessonProgress) error
	ListProgress(ctx context.Context, userID int64) ([]LessonProgress, error)
	FindProgress(ctx context.Context, f Filter) ([]StudentLesson, error)
	IncorrectAttempts(ctx context.Context, userID int64) ([]Attempt, error)
	SaveQuizAttempt(ctx context.Context, qa QuizAttempt) (QuizAttempt, error)
	ListQuizAttempts(ctx context.Context, f Filter) ([]QuizAttempt, error)
}

// listLimit caps admin listings.
const listLimit = 1000

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// SaveAttempt records the latest answer, replacing any earlier one.
func (r *PGRepository) SaveAttempt(ctx context.Context, a Attempt) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO question_attempts (user_id, question_id, item_id, selected, is_correct, answered_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, question_id) DO UPDATE
SET selected = EXCLUDED.selected, is_correct = EXCLUDED.is_correct, answered_at = EXCLUDED.answered_at`,
		a.UserID, a.QuestionID, a.ItemID, a.Selected, a.Correct, a.AnsweredAt)
	if err != nil {
		return fmt.Errorf("progress: save attempt: %w", err)
	}
	return nil
}

// Counts tallies questions and the user's attempts on an item. Attempts on
// questions that have since moved or been removed are ignored.
func (r *PGRepository) Counts(ctx context.Context, userID int64, itemID string) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `SELECT
    (SELECT COUNT(*) FROM questions WHERE item_id = $2),
    COUNT(a.question_id),
    COUNT(a.question_id) FILTER (WHERE a.is_correct),
    COALESCE((SELECT a2.question_id FROM question_attempts a2
        JOIN questions q2 ON q2.id = a2.question_id AND q2.item_id = $2
        WHERE a2.user_id = $1 ORDER BY a2.answered_at DESC, a2.question_id LIMIT 1), '')
FROM question_attempts a
JOIN questions q ON q.id = a.question_id AND q.item_id = $2
WHERE a.user_id = $1`, userID, itemID).Scan(&c.Total, &c.Answered, &c.Correct, &c.LastQuestionID)
	if err != nil {
		return Counts{}, fmt.Errorf("progress: counts for %q: %w", itemID, err)
	}
	return c, nil
}

const progressColumns = `user_id, item_id, total_questions, answered_questions, correct_answers,
completion_percentage, accuracy_percentage, COALESCE(last_question_id, ''), started_at, last_activity, completed_at`

// GetProgress loads one lesson progress row.
func (r *PGRepository) GetProgress(ctx context.Context, userID int64, itemID string) (LessonProgress, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+progressColumns+` FROM lesson_progress WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return LessonProgress{}, fmt.Errorf("progress: get %q: %w", itemID, err)
	}
	lp, err := pgx.CollectExactlyOneRow(rows, scanProgress)
	if errors.Is(err, pgx.ErrNoRows) {
		return LessonProgress{}, fmt.Errorf("progress: %q: %w", itemID, httpx.ErrNotFound)
	}
	if err != nil {
		return LessonProgress{}, fmt.Errorf("progress: get %q: %w", itemID, err)
	}
	return lp, nil
}

// SaveProgress upserts a lesson progress row.
func (r *PGRepository) SaveProgress(ctx context.Context, lp LessonProgress) error {
	var last any
	if lp.LastQuestionID != "" {
		last = lp.LastQuestionID
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO lesson_progress (user_id, item_id, total_questions, answered_questions, correct_answers,
    completion_percentage, accuracy_percentage, last_question_id, started_at, last_activity, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id, item_id) DO UPDATE
SET total_questions = EXCLUDED.total_questions,
    answered_questions = EXCLUDED.answered_questions,
    correct_answers = EXCLUDED.correct_answers,
    completion_percentage = EXCLUDED.completion_percentage,
    accuracy_percentage = EXCLUDED.accuracy_percentage,
    last_question_id = EXCLUDED.last_question_id,
    last_activity = EXCLUDED.last_activity,
    completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at)`,
		lp.UserID, lp.ItemID, lp.TotalQuestions, lp.AnsweredQuestions, lp.CorrectAnswers,
		lp.CompletionPercentage, lp.AccuracyPercentage, last, lp.StartedAt, lp.LastActivity, lp.CompletedAt)
	if err != nil {
		return fmt.Errorf("progress: save %q: %w", lp.ItemID, err)
	}
	return nil
}

// ListProgress returns every lesson a user has touched, most recent first.
func (r *PGRepository) ListProgress(ctx context.Context, userID int64) ([]LessonProgress, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+progressColumns+` FROM lesson_progress WHERE user_id = $1 ORDER BY last_activity DESC, item_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("progress: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProgress)
	if err != nil {
		return nil, fmt.Errorf("progress: list: %w", err)
	}
	return out, nil
}

// FindProgress lists progress rows across students for admin review.
func (r *PGRepository) FindProgress(ctx context.Context, f Filter) ([]StudentLesson, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+progressColumns+` FROM lesson_progress
WHERE ($1::bigint = 0 OR user_id = $1) AND ($2::text = '' OR item_id = $2)
ORDER BY last_activity DESC, user_id, item_id
LIMIT $3`, f.UserID, f.ItemID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("progress: find: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StudentLesson, error) {
		lp, err := scanProgress(row)
		return StudentLesson{UserID: lp.UserID, LessonProgress: lp}, err
	})
	if err != nil {
		return nil, fmt.Errorf("progress: find: %w", err)
	}
	return out, nil
}

// IncorrectAttempts returns the user's attempts whose latest answer was wrong,
// most recent first.
func (r *PGRepository) IncorrectAttempts(ctx context.Context, userID int64) ([]Attempt, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, question_id, item_id, selected, is_correct, answered_at
FROM question_attempts
WHERE user_id = $1 AND NOT is_correct
ORDER BY answered_at DESC, question_id
LIMIT $2`, userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("progress: incorrect attempts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Attempt, error) {
		var a Attempt
		err := row.Scan(&a.UserID, &a.QuestionID, &a.ItemID, &a.Selected, &a.Correct, &a.AnsweredAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("progress: incorrect attempts: %w", err)
	}
	return out, nil
}

const quizAttemptColumns = `id, user_id, item_id, score, correct_count, total_questions, started_at, completed_at, duration_seconds`

// SaveQuizAttempt stores a finished quiz run and returns it with its id.
func (r *PGRepository) SaveQuizAttempt(ctx context.Context, qa QuizAttempt) (QuizAttempt, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO quiz_attempts (user_id, item_id, score, correct_count, total_questions,
    started_at, completed_at, duration_seconds)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`, qa.UserID, qa.ItemID, qa.Score, qa.CorrectCount, qa.TotalQuestions,
		qa.StartedAt, qa.CompletedAt, qa.DurationSeconds).Scan(&qa.ID)
	if err != nil {
		return QuizAttempt{}, fmt.Errorf("progress: save quiz attempt %q: %w", qa.ItemID, err)
	}
	return qa, nil
}

// ListQuizAttempts returns quiz runs, newest first.
func (r *PGRepository) ListQuizAttempts(ctx context.Context, f Filter) ([]QuizAttempt, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quizAttemptColumns+` FROM quiz_attempts
WHERE ($1::bigint = 0 OR user_id = $1) AND ($2::text = '' OR item_id = $2)
ORDER BY completed_at DESC, id DESC
LIMIT $3`, f.UserID, f.ItemID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("progress: list quiz attempts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (QuizAttempt, error) {
		var qa QuizAttempt
		err := row.Scan(&qa.ID, &qa.UserID, &qa.ItemID, &qa.Score, &qa.CorrectCount, &qa.TotalQuestions,
			&qa.StartedAt, &qa.CompletedAt, &qa.DurationSeconds)
		return qa, err
	})
	if err != nil {
		return nil, fmt.Errorf("progress: list quiz attempts: %w", err)
	}
	return out, nil
}

func scanProgress(row pgx.CollectableRow) (LessonProgress, error) {
	var lp LessonProgress
	err := row.Scan(&lp.UserID, &lp.ItemID, &lp.TotalQuestions, &lp.AnsweredQuestions, &lp.CorrectAnswers,
		&lp.CompletionPercentage, &lp.AccuracyPercentage, &lp.LastQuestionID, &lp.StartedAt, &lp.LastActivity, &lp.CompletedAt)
	return lp, err
}

var _ Repository = (*PGRepository)(nil)
