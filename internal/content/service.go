package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// ItemSource resolves catalog items.
type ItemSource interface {
	GetNode(ctx context.Context, kind catalog.NodeKind, id string) (catalog.Node, error)
	ResolveItem(ctx context.Context, path catalog.Path) (catalog.Item, error)
}

// Service wraps lesson artifact rules.
type Service struct {
	repo     Repository
	items    ItemSource
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, items ItemSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, items: items, validate: validator.New(), logger: logger}
}

// ArtifactsForItem loads the video, file and questions of an item
// concurrently. Missing video or file is not an error.
func (s *Service) ArtifactsForItem(ctx context.Context, itemID string) (Artifacts, error) {
	var out Artifacts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.repo.VideoForItem(gctx, itemID)
		out.Video = v
		return err
	})
	g.Go(func() error {
		f, err := s.repo.FileForItem(gctx, itemID)
		out.File = f
		return err
	})
	g.Go(func() error {
		qs, err := s.repo.QuestionsForItem(gctx, itemID)
		out.Questions = qs
		return err
	})
	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	return out, nil
}

// LessonView resolves the item at path and the actions visible to p.
func (s *Service) LessonView(ctx context.Context, p *access.Principal, path catalog.Path) (LessonView, error) {
	item, err := s.items.ResolveItem(ctx, path)
	if err != nil {
		return LessonView{}, err
	}
	artifacts, err := s.ArtifactsForItem(ctx, item.ID)
	if err != nil {
		return LessonView{}, err
	}
	actions := access.ResolveVisibleActions(p, access.Lesson{ID: item.ID, HasTest: item.HasTest}, artifacts.Summary())
	return LessonView{
		Item:          item,
		Path:          path,
		Video:         artifacts.Video,
		File:          artifacts.File,
		QuestionCount: len(artifacts.Questions),
		Actions:       actions,
	}, nil
}

// StudentQuiz returns the quiz of the item at path with answer keys removed.
// Lessons without a takeable quiz yield ErrNotFound.
func (s *Service) StudentQuiz(ctx context.Context, p *access.Principal, path catalog.Path) ([]StudentQuestion, error) {
	item, err := s.items.ResolveItem(ctx, path)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.QuestionsForItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	actions := access.ResolveVisibleActions(p,
		access.Lesson{ID: item.ID, HasTest: item.HasTest},
		access.ArtifactSummary{QuestionCount: len(questions)})
	if !actions.Contains(access.ActionTakeQuiz) && !actions.Contains(access.ActionManageQuiz) {
		return nil, fmt.Errorf("content: quiz for %q: %w", item.ID, httpx.ErrNotFound)
	}
	out := make([]StudentQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ForStudent())
	}
	return out, nil
}

// ItemActions resolves the visible actions for a list of items.
func (s *Service) ItemActions(ctx context.Context, p *access.Principal, items []catalog.Item) (map[string]access.Actions, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	summaries, err := s.repo.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]access.Actions, len(items))
	for _, it := range items {
		out[it.ID] = access.ResolveVisibleActions(p, access.Lesson{ID: it.ID, HasTest: it.HasTest}, summaries[it.ID])
	}
	return out, nil
}

// Question fetches one question including its answer key.
func (s *Service) Question(ctx context.Context, id string) (Question, error) {
	return s.repo.GetQuestion(ctx, strings.TrimSpace(id))
}

// SaveVideo replaces the video of an item.
func (s *Service) SaveVideo(ctx context.Context, itemID string, in VideoInput, by int64) (Video, error) {
	if err := s.validate.Struct(in); err != nil {
		return Video{}, err
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return Video{}, err
	}
	return s.repo.UpsertVideo(ctx, Video{
		ID:              uuid.NewString(),
		ItemID:          itemID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		URL:             strings.TrimSpace(in.URL),
		DurationSeconds: in.DurationSeconds,
		IsPublic:        in.IsPublic,
		CreatedBy:       by,
	})
}

// DeleteVideo removes the video of an item.
func (s *Service) DeleteVideo(ctx context.Context, itemID string) error {
	return s.repo.DeleteVideo(ctx, itemID)
}

// SaveFile replaces the file of an item.
func (s *Service) SaveFile(ctx context.Context, itemID string, in FileInput, by int64) (File, error) {
	if err := s.validate.Struct(in); err != nil {
		return File{}, err
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return File{}, err
	}
	return s.repo.UpsertFile(ctx, File{
		ID:          uuid.NewString(),
		ItemID:      itemID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		URL:         strings.TrimSpace(in.URL),
		FileType:    strings.ToLower(strings.TrimSpace(in.FileType)),
		IsPublic:    in.IsPublic,
		CreatedBy:   by,
	})
}

// DeleteFile removes the file of an item.
func (s *Service) DeleteFile(ctx context.Context, itemID string) error {
	return s.repo.DeleteFile(ctx, itemID)
}

// Questions lists the full questions of an item for admins.
func (s *Service) Questions(ctx context.Context, itemID string) ([]Question, error) {
	if err := s.requireItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.QuestionsForItem(ctx, itemID)
}

// CreateQuestion adds a question to an item.
func (s *Service) CreateQuestion(ctx context.Context, itemID string, in QuestionInput, by int64) (Question, error) {
	if err := s.ValidateQuestion(in); err != nil {
		return Question{}, err
	}
	if err := s.requireItem(ctx, itemID); err != nil {
		return Question{}, err
	}
	return s.repo.SaveQuestion(ctx, buildQuestion(uuid.NewString(), itemID, in, by))
}

// UpdateQuestion rewrites a question and its answers.
func (s *Service) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (Question, error) {
	if err := s.ValidateQuestion(in); err != nil {
		return Question{}, err
	}
	existing, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	return s.repo.SaveQuestion(ctx, buildQuestion(existing.ID, existing.ItemID, in, existing.CreatedBy))
}

// DeleteQuestion removes a question.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	return s.repo.DeleteQuestion(ctx, id)
}

// ValidateQuestion checks shape rules: two to four answers with distinct
// labels from a to d and exactly one marked correct.
func (s *Service) ValidateQuestion(in QuestionInput) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	seen := make(map[string]bool, len(in.Answers))
	correct := 0
	for _, a := range in.Answers {
		label := strings.ToLower(strings.TrimSpace(a.Label))
		if seen[label] {
			return fmt.Errorf("content: duplicate answer label %q: %w", label, httpx.ErrValidation)
		}
		seen[label] = true
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("content: question needs exactly one correct answer, got %d: %w", correct, httpx.ErrValidation)
	}
	return nil
}

func (s *Service) requireItem(ctx context.Context, itemID string) error {
	_, err := s.items.GetNode(ctx, catalog.KindItem, itemID)
	return err
}

func buildQuestion(id, itemID string, in QuestionInput, by int64) Question {
	q := Question{
		ID:          id,
		ItemID:      itemID,
		Body:        strings.TrimSpace(in.Body),
		Explanation: strings.TrimSpace(in.Explanation),
		CreatedBy:   by,
		Answers:     make([]Answer, 0, len(in.Answers)),
	}
	for _, a := range in.Answers {
		q.Answers = append(q.Answers, Answer{
			Label:     strings.ToLower(strings.TrimSpace(a.Label)),
			Body:      strings.TrimSpace(a.Body),
			IsCorrect: a.IsCorrect,
		})
	}
	return q
}
