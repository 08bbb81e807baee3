package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/content"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// QuestionSource loads questions with their answer keys.
type QuestionSource interface {
	Question(ctx context.Context, id string) (content.Question, error)
}

// ItemResolver resolves the lesson an answer is submitted against.
type ItemResolver interface {
	ResolveItem(ctx context.Context, path catalog.Path) (catalog.Item, error)
}

// Enqueuer schedules a background recalculation.
type Enqueuer interface {
	EnqueueProgressRecalculate(ctx context.Context, userID int64, itemID string) error
}

// Service records answers and maintains lesson progress.
type Service struct {
	repo      Repository
	questions QuestionSource
	items     ItemResolver
	enqueuer  Enqueuer
	validate  *validator.Validate
	logger    *slog.Logger
	clock     func() time.Time
}

// NewService constructs a Service. A nil enqueuer recalculates inline.
func NewService(repo Repository, questions QuestionSource, items ItemResolver, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		questions: questions,
		items:     items,
		enqueuer:  enqueuer,
		validate:  validator.New(),
		logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// SubmitAnswer grades an answer to a question of the lesson at path and
// records it as p's latest attempt.
func (s *Service) SubmitAnswer(ctx context.Context, p *access.Principal, path catalog.Path, in AnswerInput) (SubmitResult, error) {
	if p == nil {
		return SubmitResult{}, httpx.ErrUnauthorized
	}
	in.QuestionID = strings.TrimSpace(in.QuestionID)
	in.Selected = strings.ToLower(strings.TrimSpace(in.Selected))
	if err := s.validate.Struct(in); err != nil {
		return SubmitResult{}, err
	}
	item, err := s.quizItem(ctx, p, path)
	if err != nil {
		return SubmitResult{}, err
	}
	q, err := s.questions.Question(ctx, in.QuestionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if q.ItemID != item.ID {
		return SubmitResult{}, fmt.Errorf("progress: question %q not in %q: %w", q.ID, item.ID, httpx.ErrNotFound)
	}
	if !q.HasLabel(in.Selected) {
		return SubmitResult{}, fmt.Errorf("progress: answer %q not offered: %w", in.Selected, httpx.ErrValidation)
	}

	correctLabel := q.CorrectLabel()
	attempt := Attempt{
		UserID:     p.ID,
		QuestionID: q.ID,
		ItemID:     item.ID,
		Selected:   in.Selected,
		Correct:    in.Selected == correctLabel,
		AnsweredAt: s.clock(),
	}
	if err := s.repo.SaveAttempt(ctx, attempt); err != nil {
		return SubmitResult{}, err
	}
	s.schedule(ctx, p.ID, item.ID)

	return SubmitResult{
		Correct:       attempt.Correct,
		CorrectAnswer: correctLabel,
		Explanation:   q.Explanation,
	}, nil
}

// quizItem resolves the lesson at path and checks p may answer its quiz.
func (s *Service) quizItem(ctx context.Context, p *access.Principal, path catalog.Path) (catalog.Item, error) {
	item, err := s.items.ResolveItem(ctx, path)
	if err != nil {
		return catalog.Item{}, err
	}
	actions := access.ResolveVisibleActions(p,
		access.Lesson{ID: item.ID, HasTest: item.HasTest},
		access.ArtifactSummary{QuestionCount: 1})
	if !actions.Contains(access.ActionTakeQuiz) && !actions.Contains(access.ActionManageQuiz) {
		return catalog.Item{}, fmt.Errorf("progress: quiz for %q: %w", item.ID, httpx.ErrNotFound)
	}
	return item, nil
}

// FinishQuiz closes a quiz run on the lesson at path and stores its result.
// The score counts p's latest answer to every question of the lesson;
// unanswered questions count as wrong.
func (s *Service) FinishQuiz(ctx context.Context, p *access.Principal, path catalog.Path, in FinishQuizInput) (QuizAttempt, error) {
	if p == nil {
		return QuizAttempt{}, httpx.ErrUnauthorized
	}
	if err := s.validate.Struct(in); err != nil {
		return QuizAttempt{}, err
	}
	item, err := s.quizItem(ctx, p, path)
	if err != nil {
		return QuizAttempt{}, err
	}
	now := s.clock()
	started := in.StartedAt.UTC()
	if started.After(now) {
		return QuizAttempt{}, fmt.Errorf("progress: quiz started in the future: %w", httpx.ErrValidation)
	}
	counts, err := s.repo.Counts(ctx, p.ID, item.ID)
	if err != nil {
		return QuizAttempt{}, err
	}
	if counts.Total == 0 {
		return QuizAttempt{}, fmt.Errorf("progress: %q has no questions: %w", item.ID, httpx.ErrValidation)
	}
	qa := ScoreQuiz(counts, started, now)
	qa.UserID = p.ID
	qa.ItemID = item.ID
	saved, err := s.repo.SaveQuizAttempt(ctx, qa)
	if err != nil {
		return QuizAttempt{}, err
	}
	s.logger.Info("quiz finished",
		slog.Int64("user_id", p.ID),
		slog.String("item_id", item.ID),
		slog.Float64("score", saved.Score))
	return saved, nil
}

func (s *Service) schedule(ctx context.Context, userID int64, itemID string) {
	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueProgressRecalculate(ctx, userID, itemID)
		if err == nil {
			return
		}
		s.logger.Warn("enqueue progress recalculation", slog.String("item_id", itemID), slog.Any("error", err))
	}
	if _, err := s.Recalculate(ctx, userID, itemID); err != nil {
		s.logger.Error("recalculate progress", slog.String("item_id", itemID), slog.Any("error", err))
	}
}

// Recalculate rebuilds the progress row of (userID, itemID) from attempts.
func (s *Service) Recalculate(ctx context.Context, userID int64, itemID string) (LessonProgress, error) {
	counts, err := s.repo.Counts(ctx, userID, itemID)
	if err != nil {
		return LessonProgress{}, err
	}
	prev, err := s.repo.GetProgress(ctx, userID, itemID)
	switch {
	case errors.Is(err, httpx.ErrNotFound):
		prev = LessonProgress{UserID: userID, ItemID: itemID}
	case err != nil:
		return LessonProgress{}, err
	}
	next := Compute(prev, counts, s.clock())
	if err := s.repo.SaveProgress(ctx, next); err != nil {
		return LessonProgress{}, err
	}
	return next, nil
}

// MyProgress lists the lessons the user has progress on.
func (s *Service) MyProgress(ctx context.Context, userID int64) ([]LessonProgress, error) {
	out, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LessonProgress{}
	}
	return out, nil
}

// QuizAttempts lists the user's finished quiz runs, optionally for one lesson.
func (s *Service) QuizAttempts(ctx context.Context, userID int64, itemID string) ([]QuizAttempt, error) {
	if userID <= 0 {
		return nil, httpx.ErrUnauthorized
	}
	return s.AllQuizAttempts(ctx, Filter{UserID: userID, ItemID: itemID})
}

// AllQuizAttempts lists quiz runs across students.
func (s *Service) AllQuizAttempts(ctx context.Context, f Filter) ([]QuizAttempt, error) {
	out, err := s.repo.ListQuizAttempts(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []QuizAttempt{}
	}
	return out, nil
}

// AllProgress lists lesson progress across students.
func (s *Service) AllProgress(ctx context.Context, f Filter) ([]StudentLesson, error) {
	out, err := s.repo.FindProgress(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []StudentLesson{}
	}
	return out, nil
}

// IncorrectAnswers lists the questions the user last answered wrongly,
// joined with their current text and answer key. Questions removed since
// the attempt are skipped.
func (s *Service) IncorrectAnswers(ctx context.Context, userID int64) ([]IncorrectAnswer, error) {
	attempts, err := s.repo.IncorrectAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]IncorrectAnswer, 0, len(attempts))
	for _, a := range attempts {
		q, err := s.questions.Question(ctx, a.QuestionID)
		if errors.Is(err, httpx.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, IncorrectAnswer{
			QuestionID:    q.ID,
			ItemID:        q.ItemID,
			Body:          q.Body,
			Selected:      a.Selected,
			CorrectAnswer: q.CorrectLabel(),
			Explanation:   q.Explanation,
			AnsweredAt:    a.AnsweredAt,
		})
	}
	return out, nil
}
