package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qudrat-academy/qudrat/internal/platform/db"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Repository defines persistence operations for the catalog.
type Repository interface {
	LoadTree(ctx context.Context) (Tree, error)
	GetNode(ctx context.Context, kind NodeKind, id string) (Node, error)
	KindOf(ctx context.Context, id string) (NodeKind, error)
	InsertChapter(ctx context.Context, ch Chapter) error
	UpdateChapter(ctx context.Context, ch Chapter) error
	DeleteChapter(ctx context.Context, id string) error
	InsertItem(ctx context.Context, it Item) error
	UpdateItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id string) error
	Import(ctx context.Context, tree Tree) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type nodeTable struct {
	table     string
	parentCol string
	testCol   string
}

var nodeTables = map[NodeKind]nodeTable{
	KindSection:  {table: "sections", parentCol: "''", testCol: "FALSE"},
	KindSubject:  {table: "subjects", parentCol: "section_id", testCol: "FALSE"},
	KindCategory: {table: "categories", parentCol: "subject_id", testCol: "has_tests"},
	KindChapter:  {table: "chapters", parentCol: "category_id", testCol: "FALSE"},
	KindItem:     {table: "items", parentCol: "chapter_id", testCol: "has_test"},
}

// GetNode fetches one node of any level.
func (r *PGRepository) GetNode(ctx context.Context, kind NodeKind, id string) (Node, error) {
	t, ok := nodeTables[kind]
	if !ok {
		return Node{}, fmt.Errorf("catalog: node kind %q: %w", kind, httpx.ErrValidation)
	}
	query := fmt.Sprintf(`SELECT id, %s, name, name_en, position, %s FROM %s WHERE id = $1`, t.parentCol, t.testCol, t.table)
	node := Node{Kind: kind}
	err := r.pool.QueryRow(ctx, query, id).Scan(&node.ID, &node.ParentID, &node.Name, &node.NameEn, &node.Order, &node.HasTest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("catalog: %s %q: %w", kind, id, httpx.ErrNotFound)
		}
		return Node{}, err
	}
	return node, nil
}

// LoadTree reads every level and nests it.
func (r *PGRepository) LoadTree(ctx context.Context) (Tree, error) {
	sections, err := collect(ctx, r.pool, `SELECT id, name, name_en, position FROM sections`, func(row pgx.CollectableRow) (Section, error) {
		var s Section
		err := row.Scan(&s.ID, &s.Name, &s.NameEn, &s.Order)
		return s, err
	})
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: load sections: %w", err)
	}
	subjects, err := collect(ctx, r.pool, `SELECT id, section_id, name, name_en, position FROM subjects`, func(row pgx.CollectableRow) (Subject, error) {
		var s Subject
		err := row.Scan(&s.ID, &s.SectionID, &s.Name, &s.NameEn, &s.Order)
		return s, err
	})
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: load subjects: %w", err)
	}
	categories, err := collect(ctx, r.pool, `SELECT id, subject_id, name, name_en, has_tests, position FROM categories`, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.SubjectID, &c.Name, &c.NameEn, &c.HasTests, &c.Order)
		return c, err
	})
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: load categories: %w", err)
	}
	chapters, err := collect(ctx, r.pool, `SELECT id, category_id, name, name_en, position FROM chapters`, func(row pgx.CollectableRow) (Chapter, error) {
		var c Chapter
		err := row.Scan(&c.ID, &c.CategoryID, &c.Name, &c.NameEn, &c.Order)
		return c, err
	})
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: load chapters: %w", err)
	}
	items, err := collect(ctx, r.pool, `SELECT id, chapter_id, name, name_en, has_test, position FROM items`, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.ChapterID, &it.Name, &it.NameEn, &it.HasTest, &it.Order)
		return it, err
	})
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: load items: %w", err)
	}
	return Assemble(sections, subjects, categories, chapters, items), nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, query string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}

const upsertChapterSQL = `INSERT INTO chapters (id, category_id, name, name_en, position)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET category_id = EXCLUDED.category_id, name = EXCLUDED.name,
    name_en = EXCLUDED.name_en, position = EXCLUDED.position`

const upsertItemSQL = `INSERT INTO items (id, chapter_id, name, name_en, has_test, position)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET chapter_id = EXCLUDED.chapter_id, name = EXCLUDED.name,
    name_en = EXCLUDED.name_en, has_test = EXCLUDED.has_test, position = EXCLUDED.position`

// KindOf reports which level owns id. Ids are unique across the whole tree.
func (r *PGRepository) KindOf(ctx context.Context, id string) (NodeKind, error) {
	var kind NodeKind
	err := r.pool.QueryRow(ctx, `SELECT kind FROM catalog_nodes WHERE id = $1 LIMIT 1`, id).Scan(&kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("catalog: node %q: %w", id, httpx.ErrNotFound)
		}
		return "", err
	}
	return kind, nil
}

// InsertChapter creates a chapter. An id already used at any level is a
// duplicate.
func (r *PGRepository) InsertChapter(ctx context.Context, ch Chapter) error {
	return r.insertUnique(ctx, ch.ID, `INSERT INTO chapters (id, category_id, name, name_en, position) VALUES ($1, $2, $3, $4, $5)`,
		ch.ID, ch.CategoryID, ch.Name, ch.NameEn, ch.Order)
}

// UpdateChapter rewrites an existing chapter.
func (r *PGRepository) UpdateChapter(ctx context.Context, ch Chapter) error {
	return r.updateByID(ctx, "chapters", ch.ID, `UPDATE chapters SET category_id = $2, name = $3, name_en = $4, position = $5 WHERE id = $1`,
		ch.ID, ch.CategoryID, ch.Name, ch.NameEn, ch.Order)
}

// DeleteChapter removes a chapter and, by cascade, its items.
func (r *PGRepository) DeleteChapter(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "chapters", id)
}

// InsertItem creates an item. An id already used at any level is a duplicate.
func (r *PGRepository) InsertItem(ctx context.Context, it Item) error {
	return r.insertUnique(ctx, it.ID, `INSERT INTO items (id, chapter_id, name, name_en, has_test, position) VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.ChapterID, it.Name, it.NameEn, it.HasTest, it.Order)
}

// UpdateItem rewrites an existing item.
func (r *PGRepository) UpdateItem(ctx context.Context, it Item) error {
	return r.updateByID(ctx, "items", it.ID, `UPDATE items SET chapter_id = $2, name = $3, name_en = $4, has_test = $5, position = $6 WHERE id = $1`,
		it.ID, it.ChapterID, it.Name, it.NameEn, it.HasTest, it.Order)
}

// DeleteItem removes an item and its artifacts.
func (r *PGRepository) DeleteItem(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "items", id)
}

// insertUnique checks the id against every level and inserts under a
// transaction-scoped advisory lock so concurrent creates cannot race.
func (r *PGRepository) insertUnique(ctx context.Context, id, query string, args ...any) error {
	return db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('catalog_nodes'))`); err != nil {
			return err
		}
		var kind NodeKind
		err := tx.QueryRow(ctx, `SELECT kind FROM catalog_nodes WHERE id = $1 LIMIT 1`, id).Scan(&kind)
		switch {
		case err == nil:
			return fmt.Errorf("catalog: id %q already used by a %s: %w", id, kind, httpx.ErrDuplicate)
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("catalog: id %q: %w", id, httpx.ErrDuplicate)
			}
			return err
		}
		return nil
	})
}

func (r *PGRepository) updateByID(ctx context.Context, table, id, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %s %q: %w", table, id, httpx.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) deleteByID(ctx context.Context, table, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: %s %q: %w", table, id, httpx.ErrNotFound)
	}
	return nil
}

// Import upserts a whole tree in one transaction. Existing nodes missing
// from the tree are left untouched.
func (r *PGRepository) Import(ctx context.Context, tree Tree) error {
	return db.WithTx(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('catalog_nodes'))`); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT id, kind FROM catalog_nodes`)
		if err != nil {
			return err
		}
		existing, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Node, error) {
			var n Node
			err := row.Scan(&n.ID, &n.Kind)
			return n, err
		})
		if err != nil {
			return err
		}
		incoming := tree.kinds()
		for _, n := range existing {
			if kind, ok := incoming[n.ID]; ok && kind != n.Kind {
				return fmt.Errorf("catalog: %s %q clashes with an existing %s: %w", kind, n.ID, n.Kind, httpx.ErrDuplicate)
			}
		}

		batch := &pgx.Batch{}
		for _, sec := range tree.Sections {
			batch.Queue(`INSERT INTO sections (id, name, name_en, position) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, name_en = EXCLUDED.name_en, position = EXCLUDED.position`,
				sec.ID, sec.Name, sec.NameEn, sec.Order)
			for _, sub := range sec.Subjects {
				batch.Queue(`INSERT INTO subjects (id, section_id, name, name_en, position) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET section_id = EXCLUDED.section_id, name = EXCLUDED.name, name_en = EXCLUDED.name_en, position = EXCLUDED.position`,
					sub.ID, sec.ID, sub.Name, sub.NameEn, sub.Order)
				for _, cat := range sub.Categories {
					batch.Queue(`INSERT INTO categories (id, subject_id, name, name_en, has_tests, position) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET subject_id = EXCLUDED.subject_id, name = EXCLUDED.name, name_en = EXCLUDED.name_en,
    has_tests = EXCLUDED.has_tests, position = EXCLUDED.position`,
						cat.ID, sub.ID, cat.Name, cat.NameEn, cat.HasTests, cat.Order)
					for _, ch := range cat.Chapters {
						batch.Queue(upsertChapterSQL, ch.ID, cat.ID, ch.Name, ch.NameEn, ch.Order)
						for _, it := range ch.Items {
							batch.Queue(upsertItemSQL, it.ID, ch.ID, it.Name, it.NameEn, it.HasTest, it.Order)
						}
					}
				}
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

var _ Repository = (*PGRepository)(nil)
