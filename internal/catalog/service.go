package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Service exposes read and admin operations over the course tree.
type Service struct {
	repo     Repository
	cache    *Cache
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	loads    singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache != nil {
		cache.logger = logger
	}
	return &Service{repo: repo, cache: cache, validate: validator.New(), logger: logger, now: time.Now}
}

// GetNode fetches a single node. A missing node yields ErrNotFound, never
// an access decision.
func (s *Service) GetNode(ctx context.Context, kind NodeKind, id string) (Node, error) {
	if !kind.Valid() {
		return Node{}, fmt.Errorf("catalog: node kind %q: %w", kind, httpx.ErrValidation)
	}
	return s.repo.GetNode(ctx, kind, strings.TrimSpace(id))
}

// Tree returns the full catalog, read through the cache.
func (s *Service) Tree(ctx context.Context) (Tree, error) {
	key, err := s.cache.BuildKey(ctx, "tree")
	if err != nil {
		s.logger.Warn("catalog cache unavailable", slog.Any("error", err))
		return s.load(ctx)
	}
	var tree Tree
	err = s.cache.FetchJSON(ctx, key, &tree, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return Tree{}, err
	}
	return tree, nil
}

// load reads the tree from the repository. Concurrent cache misses share a
// single query.
func (s *Service) load(ctx context.Context) (Tree, error) {
	ch := s.loads.DoChan("tree", func() (any, error) {
		tree, err := s.repo.LoadTree(ctx)
		if err != nil {
			return Tree{}, err
		}
		tree.BuiltAt = s.now().UTC()
		return tree, nil
	})
	select {
	case <-ctx.Done():
		return Tree{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Tree{}, res.Err
		}
		return res.Val.(Tree), nil
	}
}

// Outline lists sections with their subjects for the public course page.
func (s *Service) Outline(ctx context.Context) ([]Section, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Outline(), nil
}

// SectionSubjects lists the subjects of a section the principal may open.
func (s *Service) SectionSubjects(ctx context.Context, p *access.Principal, sectionID string) ([]Subject, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	sec, err := tree.Section(sectionID)
	if err != nil {
		return nil, err
	}
	return FilterSubjects(p, stripCategories(sec.Subjects)), nil
}

// AccessibleSubjects lists, across all sections, every subject reachable by
// the principal.
func (s *Service) AccessibleSubjects(ctx context.Context, p *access.Principal) ([]Subject, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	out := []Subject{}
	for _, sec := range tree.Sections {
		if !access.HasSectionAccess(p, sec.ID) {
			continue
		}
		out = append(out, FilterSubjects(p, stripCategories(sec.Subjects))...)
	}
	return out, nil
}

// Categories lists the categories of the subject addressed by path.
func (s *Service) Categories(ctx context.Context, path Path) ([]Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := tree.Subject(path.SectionID, path.SubjectID)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(sub.Categories))
	for _, c := range sub.Categories {
		c.Chapters = nil
		out = append(out, c)
	}
	return out, nil
}

// Chapters lists the chapters of the category addressed by path.
func (s *Service) Chapters(ctx context.Context, path Path) ([]Chapter, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := tree.Category(path)
	if err != nil {
		return nil, err
	}
	out := make([]Chapter, 0, len(cat.Chapters))
	for _, ch := range cat.Chapters {
		ch.Items = nil
		out = append(out, ch)
	}
	return out, nil
}

// Items lists the items of the chapter addressed by path.
func (s *Service) Items(ctx context.Context, path Path) ([]Item, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := tree.Chapter(path)
	if err != nil {
		return nil, err
	}
	return ch.Items, nil
}

// ResolveItem returns the item addressed by a full path, checking that
// every segment belongs to its parent.
func (s *Service) ResolveItem(ctx context.Context, path Path) (Item, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return Item{}, err
	}
	return tree.Item(path)
}

// ItemPath returns the ancestors of an item.
func (s *Service) ItemPath(ctx context.Context, itemID string) (Path, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return Path{}, err
	}
	return tree.PathOf(itemID)
}

// CreateChapter adds a chapter. A supplied id must not be used by any node.
func (s *Service) CreateChapter(ctx context.Context, in ChapterInput) (Chapter, error) {
	ch, err := s.chapterFromInput(ctx, in)
	if err != nil {
		return Chapter{}, err
	}
	if ch.ID == "" {
		ch.ID = newNodeID(KindChapter)
	} else if err := s.ensureUnused(ctx, ch.ID); err != nil {
		return Chapter{}, err
	}
	if err := s.repo.InsertChapter(ctx, ch); err != nil {
		return Chapter{}, fmt.Errorf("catalog: create chapter: %w", err)
	}
	s.invalidate(ctx)
	return ch, nil
}

// UpdateChapter rewrites an existing chapter.
func (s *Service) UpdateChapter(ctx context.Context, id string, in ChapterInput) (Chapter, error) {
	in.ID = id
	ch, err := s.chapterFromInput(ctx, in)
	if err != nil {
		return Chapter{}, err
	}
	if _, err := s.repo.GetNode(ctx, KindChapter, id); err != nil {
		return Chapter{}, err
	}
	if err := s.repo.UpdateChapter(ctx, ch); err != nil {
		return Chapter{}, fmt.Errorf("catalog: update chapter: %w", err)
	}
	s.invalidate(ctx)
	return ch, nil
}

func (s *Service) chapterFromInput(ctx context.Context, in ChapterInput) (Chapter, error) {
	if err := s.validate.Struct(in); err != nil {
		return Chapter{}, err
	}
	if _, err := s.repo.GetNode(ctx, KindCategory, in.CategoryID); err != nil {
		return Chapter{}, err
	}
	return Chapter{
		ID:         strings.TrimSpace(in.ID),
		CategoryID: in.CategoryID,
		Name:       normaliseName(in.Name),
		NameEn:     normaliseName(in.NameEn),
		Order:      in.Order,
	}, nil
}

// DeleteChapter removes a chapter.
func (s *Service) DeleteChapter(ctx context.Context, id string) error {
	if err := s.repo.DeleteChapter(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// CreateItem adds an item. HasTest defaults to true and a supplied id must
// not be used by any node.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	it, err := s.itemFromInput(ctx, in)
	if err != nil {
		return Item{}, err
	}
	it.HasTest = true
	if in.HasTest != nil {
		it.HasTest = *in.HasTest
	}
	if it.ID == "" {
		it.ID = newNodeID(KindItem)
	} else if err := s.ensureUnused(ctx, it.ID); err != nil {
		return Item{}, err
	}
	if err := s.repo.InsertItem(ctx, it); err != nil {
		return Item{}, fmt.Errorf("catalog: create item: %w", err)
	}
	s.invalidate(ctx)
	return it, nil
}

// UpdateItem rewrites an existing item. An omitted hasTest keeps the stored
// flag.
func (s *Service) UpdateItem(ctx context.Context, id string, in ItemInput) (Item, error) {
	in.ID = id
	it, err := s.itemFromInput(ctx, in)
	if err != nil {
		return Item{}, err
	}
	current, err := s.repo.GetNode(ctx, KindItem, id)
	if err != nil {
		return Item{}, err
	}
	it.HasTest = current.HasTest
	if in.HasTest != nil {
		it.HasTest = *in.HasTest
	}
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return Item{}, fmt.Errorf("catalog: update item: %w", err)
	}
	s.invalidate(ctx)
	return it, nil
}

func (s *Service) itemFromInput(ctx context.Context, in ItemInput) (Item, error) {
	if err := s.validate.Struct(in); err != nil {
		return Item{}, err
	}
	if _, err := s.repo.GetNode(ctx, KindChapter, in.ChapterID); err != nil {
		return Item{}, err
	}
	return Item{
		ID:        strings.TrimSpace(in.ID),
		ChapterID: in.ChapterID,
		Name:      normaliseName(in.Name),
		NameEn:    normaliseName(in.NameEn),
		Order:     in.Order,
	}, nil
}

// ensureUnused rejects ids already taken at any level of the tree.
func (s *Service) ensureUnused(ctx context.Context, id string) error {
	kind, err := s.repo.KindOf(ctx, id)
	switch {
	case err == nil:
		return fmt.Errorf("catalog: id %q already used by a %s: %w", id, kind, httpx.ErrDuplicate)
	case errors.Is(err, httpx.ErrNotFound):
		return nil
	default:
		return err
	}
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Import upserts a seeded tree.
func (s *Service) Import(ctx context.Context, tree Tree) error {
	if err := s.repo.Import(ctx, tree); err != nil {
		return fmt.Errorf("catalog: import: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Warmup rebuilds the cached tree.
func (s *Service) Warmup(ctx context.Context) error {
	_, err := s.Tree(ctx)
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump failed", slog.Any("error", err))
	}
}

// FilterSubjects keeps the subjects the principal may open.
func FilterSubjects(p *access.Principal, subjects []Subject) []Subject {
	out := make([]Subject, 0, len(subjects))
	for _, sub := range subjects {
		if access.HasSubjectAccess(p, sub.ID) {
			out = append(out, sub)
		}
	}
	return out
}

func stripCategories(in []Subject) []Subject {
	out := make([]Subject, len(in))
	for i, s := range in {
		s.Categories = nil
		out[i] = s
	}
	return out
}

func newNodeID(kind NodeKind) string {
	return string(kind) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
