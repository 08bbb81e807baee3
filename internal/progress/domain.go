package progress

import (
	"math"
	"time"
)

// Attempt is the latest answer a user gave to a question.
type Attempt struct {
	UserID     int64     `json:"-"`
	QuestionID string    `json:"questionId"`
	ItemID     string    `json:"itemId"`
	Selected   string    `json:"selected"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// LessonProgress aggregates a user's attempts on one lesson.
type LessonProgress struct {
	UserID               int64      `json:"-"`
	ItemID               string     `json:"itemId"`
	TotalQuestions       int        `json:"totalQuestions"`
	AnsweredQuestions    int        `json:"answeredQuestions"`
	CorrectAnswers       int        `json:"correctAnswers"`
	CompletionPercentage float64    `json:"completionPercentage"`
	AccuracyPercentage   float64    `json:"accuracyPercentage"`
	LastQuestionID       string     `json:"lastQuestionId,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	LastActivity         time.Time  `json:"lastActivity"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

// Completed reports whether every question of the lesson has been answered.
func (lp LessonProgress) Completed() bool {
	return lp.CompletedAt != nil
}

// Counts is the raw tally a recalculation starts from.
type Counts struct {
	Total          int
	Answered       int
	Correct        int
	LastQuestionID string
}

// Compute folds fresh counts into prev. StartedAt and CompletedAt are sticky
// once set.
func Compute(prev LessonProgress, c Counts, now time.Time) LessonProgress {
	next := prev
	next.TotalQuestions = c.Total
	next.AnsweredQuestions = c.Answered
	next.CorrectAnswers = c.Correct
	next.CompletionPercentage = percentage(c.Answered, c.Total)
	next.AccuracyPercentage = percentage(c.Correct, c.Answered)
	if c.LastQuestionID != "" {
		next.LastQuestionID = c.LastQuestionID
	}
	if next.StartedAt.IsZero() {
		next.StartedAt = now
	}
	next.LastActivity = now
	if next.CompletedAt == nil && c.Total > 0 && c.Answered >= c.Total {
		done := now
		next.CompletedAt = &done
	}
	return next
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

// AnswerInput is the body of an answer submission.
type AnswerInput struct {
	QuestionID string `json:"questionId" validate:"required"`
	Selected   string `json:"selected" validate:"required,oneof=a b c d"`
}

// SubmitResult tells the student how the answer fared.
type SubmitResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

// StudentLesson is a progress row labelled with its owner.
type StudentLesson struct {
	UserID int64 `json:"userId"`
	LessonProgress
}

// Filter narrows admin listings. Zero fields match everything.
type Filter struct {
	UserID int64
	ItemID string
}

// IncorrectAnswer is a question whose latest attempt was wrong, with the
// material needed to review it.
type IncorrectAnswer struct {
	QuestionID    string    `json:"questionId"`
	ItemID        string    `json:"itemId"`
	Body          string    `json:"body"`
	Selected      string    `json:"selected"`
	CorrectAnswer string    `json:"correctAnswer"`
	Explanation   string    `json:"explanation,omitempty"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// QuizAttempt is one finished run through a lesson's quiz.
type QuizAttempt struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	ItemID          string    `json:"itemId"`
	Score           float64   `json:"score"`
	CorrectCount    int       `json:"correctCount"`
	TotalQuestions  int       `json:"totalQuestions"`
	StartedAt       time.Time `json:"startedAt"`
	CompletedAt     time.Time `json:"completedAt"`
	DurationSeconds int       `json:"durationSeconds"`
}

// FinishQuizInput is the body sent when a student ends a quiz run.
type FinishQuizInput struct {
	StartedAt time.Time `json:"startedAt" validate:"required"`
}

// ScoreQuiz builds the result of a run from the user's latest answers.
func ScoreQuiz(c Counts, startedAt, now time.Time) QuizAttempt {
	return QuizAttempt{
		Score:           percentage(c.Correct, c.Total),
		CorrectCount:    c.Correct,
		TotalQuestions:  c.Total,
		StartedAt:       startedAt,
		CompletedAt:     now,
		DurationSeconds: int(now.Sub(startedAt) / time.Second),
	}
}
