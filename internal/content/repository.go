package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/db"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Repository defines persistence operations for lesson artifacts.
type Repository interface {
	VideoForItem(ctx context.Context, itemID string) (*Video, error)
	FileForItem(ctx context.Context, itemID string) (*File, error)
	QuestionsForItem(ctx context.Context, itemID string) ([]Question, error)
	Summaries(ctx context.Context, itemIDs []string) (map[string]access.ArtifactSummary, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	UpsertVideo(ctx context.Context, v Video) (Video, error)
	DeleteVideo(ctx context.Context, itemID string) error
	UpsertFile(ctx context.Context, f File) (File, error)
	DeleteFile(ctx context.Context, itemID string) error
	SaveQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// VideoForItem returns the item's video or nil.
func (r *PGRepository) VideoForItem(ctx context.Context, itemID string) (*Video, error) {
	var v Video
	err := r.pool.QueryRow(ctx, `SELECT id, item_id, title, description, url, duration_seconds, is_public, COALESCE(created_by, 0), created_at, updated_at
FROM videos WHERE item_id = $1`, itemID).
		Scan(&v.ID, &v.ItemID, &v.Title, &v.Description, &v.URL, &v.DurationSeconds, &v.IsPublic, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: video for %q: %w", itemID, err)
	}
	return &v, nil
}

// FileForItem returns the item's file or nil.
func (r *PGRepository) FileForItem(ctx context.Context, itemID string) (*File, error) {
	var f File
	err := r.pool.QueryRow(ctx, `SELECT id, item_id, title, description, url, file_type, is_public, COALESCE(created_by, 0), created_at, updated_at
FROM files WHERE item_id = $1`, itemID).
		Scan(&f.ID, &f.ItemID, &f.Title, &f.Description, &f.URL, &f.FileType, &f.IsPublic, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: file for %q: %w", itemID, err)
	}
	return &f, nil
}

// QuestionsForItem lists questions with their answers, oldest first.
func (r *PGRepository) QuestionsForItem(ctx context.Context, itemID string) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, body, explanation, COALESCE(created_by, 0), created_at, updated_at
FROM questions WHERE item_id = $1 ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("content: questions for %q: %w", itemID, err)
	}
	questions, err := pgx.CollectRows(rows, scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("content: questions for %q: %w", itemID, err)
	}
	if len(questions) == 0 {
		return []Question{}, nil
	}

	ids := make([]string, len(questions))
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		index[q.ID] = i
	}
	answerRows, err := r.pool.Query(ctx, `SELECT question_id, label, body, is_correct FROM answers
WHERE question_id = ANY($1) ORDER BY question_id, label`, ids)
	if err != nil {
		return nil, fmt.Errorf("content: answers for %q: %w", itemID, err)
	}
	defer answerRows.Close()
	for answerRows.Next() {
		var qid string
		var a Answer
		if err := answerRows.Scan(&qid, &a.Label, &a.Body, &a.IsCorrect); err != nil {
			return nil, err
		}
		i := index[qid]
		questions[i].Answers = append(questions[i].Answers, a)
	}
	return questions, answerRows.Err()
}

func scanQuestion(row pgx.CollectableRow) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.ItemID, &q.Body, &q.Explanation, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	q.Answers = []Answer{}
	return q, err
}

// Summaries counts artifacts for many items in one round trip.
func (r *PGRepository) Summaries(ctx context.Context, itemIDs []string) (map[string]access.ArtifactSummary, error) {
	out := make(map[string]access.ArtifactSummary, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT i.id,
    EXISTS (SELECT 1 FROM videos v WHERE v.item_id = i.id),
    EXISTS (SELECT 1 FROM files f WHERE f.item_id = i.id),
    (SELECT COUNT(*) FROM questions q WHERE q.item_id = i.id)
FROM items i WHERE i.id = ANY($1)`, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("content: summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var s access.ArtifactSummary
		if err := rows.Scan(&id, &s.HasVideo, &s.HasFile, &s.QuestionCount); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, rows.Err()
}

// GetQuestion fetches one question with answers.
func (r *PGRepository) GetQuestion(ctx context.Context, id string) (Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_id, body, explanation, COALESCE(created_by, 0), created_at, updated_at
FROM questions WHERE id = $1`, id)
	if err != nil {
		return Question{}, err
	}
	q, err := pgx.CollectExactlyOneRow(rows, scanQuestion)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, fmt.Errorf("content: question %q: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return Question{}, err
	}
	answerRows, err := r.pool.Query(ctx, `SELECT label, body, is_correct FROM answers WHERE question_id = $1 ORDER BY label`, id)
	if err != nil {
		return Question{}, err
	}
	q.Answers, err = pgx.CollectRows(answerRows, func(row pgx.CollectableRow) (Answer, error) {
		var a Answer
		err := row.Scan(&a.Label, &a.Body, &a.IsCorrect)
		return a, err
	})
	return q, err
}

// UpsertVideo replaces the item's video.
func (r *PGRepository) UpsertVideo(ctx context.Context, v Video) (Video, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO videos (id, item_id, title, description, url, duration_seconds, is_public, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0))
ON CONFLICT (item_id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, url = EXCLUDED.url,
    duration_seconds = EXCLUDED.duration_seconds, is_public = EXCLUDED.is_public, updated_at = now()
RETURNING id, created_at, updated_at`,
		v.ID, v.ItemID, v.Title, v.Description, v.URL, v.DurationSeconds, v.IsPublic, v.CreatedBy).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return Video{}, fmt.Errorf("content: upsert video: %w", err)
	}
	return v, nil
}

// DeleteVideo removes the item's video.
func (r *PGRepository) DeleteVideo(ctx context.Context, itemID string) error {
	return r.deleteWhere(ctx, `DELETE FROM videos WHERE item_id = $1`, "video", itemID)
}

// UpsertFile replaces the item's file.
func (r *PGRepository) UpsertFile(ctx context.Context, f File) (File, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO files (id, item_id, title, description, url, file_type, is_public, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0))
ON CONFLICT (item_id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, url = EXCLUDED.url,
    file_type = EXCLUDED.file_type, is_public = EXCLUDED.is_public, updated_at = now()
RETURNING id, created_at, updated_at`,
		f.ID, f.ItemID, f.Title, f.Description, f.URL, f.FileType, f.IsPublic, f.CreatedBy).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return File{}, fmt.Errorf("content: upsert file: %w", err)
	}
	return f, nil
}

// DeleteFile removes the item's file.
func (r *PGRepository) DeleteFile(ctx context.Context, itemID string) error {
	return r.deleteWhere(ctx, `DELETE FROM files WHERE item_id = $1`, "file", itemID)
}

// SaveQuestion inserts or replaces a question and its answers.
func (r *PGRepository) SaveQuestion(ctx context.Context, q Question) (Question, error) {
	err := db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO questions (id, item_id, body, explanation, created_by)
VALUES ($1, $2, $3, $4, NULLIF($5, 0))
ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, explanation = EXCLUDED.explanation, updated_at = now()
RETURNING item_id, created_at, updated_at`,
			q.ID, q.ItemID, q.Body, q.Explanation, q.CreatedBy).Scan(&q.ItemID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		rows := make([][]any, 0, len(q.Answers))
		for _, a := range q.Answers {
			rows = append(rows, []any{q.ID, a.Label, a.Body, a.IsCorrect})
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"answers"}, []string{"question_id", "label", "body", "is_correct"}, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return Question{}, fmt.Errorf("content: save question: %w", err)
	}
	return q, nil
}

// DeleteQuestion removes a question.
func (r *PGRepository) DeleteQuestion(ctx context.Context, id string) error {
	return r.deleteWhere(ctx, `DELETE FROM questions WHERE id = $1`, "question", id)
}

func (r *PGRepository) deleteWhere(ctx context.Context, query, what, id string) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("content: delete %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content: %s %q: %w", what, id, httpx.ErrNotFound)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
