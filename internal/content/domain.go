// Package content manages the artifacts attached to lessons: one video, one
// file and a question set per item.
package content

import (
	"time"

	"github.com/qudrat-academy/qudrat/internal/access"
	"github.com/qudrat-academy/qudrat/internal/catalog"
)

// Video is the optional lesson video.
type Video struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"itemId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"durationSeconds"`
	IsPublic        bool      `json:"isPublic"`
	CreatedBy       int64     `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// File is the optional lesson handout.
type File struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	FileType    string    `json:"fileType,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	CreatedBy   int64     `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Answer is one labelled choice of a question.
type Answer struct {
	Label     string `json:"label"`
	Body      string `json:"body"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a multiple-choice question attached to an item.
type Question struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"itemId"`
	Body        string    `json:"body"`
	Explanation string    `json:"explanation,omitempty"`
	Answers     []Answer  `json:"answers"`
	CreatedBy   int64     `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CorrectLabel returns the label of the correct answer.
func (q Question) CorrectLabel() string {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a.Label
		}
	}
	return ""
}

// HasLabel reports whether the question offers label.
func (q Question) HasLabel(label string) bool {
	for _, a := range q.Answers {
		if a.Label == label {
			return true
		}
	}
	return false
}

// Artifacts bundles everything attached to one item.
type Artifacts struct {
	Video     *Video     `json:"video,omitempty"`
	File      *File      `json:"file,omitempty"`
	Questions []Question `json:"questions"`
}

// Summary reduces artifacts to what the visibility resolver needs.
func (a Artifacts) Summary() access.ArtifactSummary {
	return access.ArtifactSummary{
		HasVideo:      a.Video != nil,
		HasFile:       a.File != nil,
		QuestionCount: len(a.Questions),
	}
}

// StudentAnswer hides the correctness flag.
type StudentAnswer struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

// StudentQuestion is the question payload sent to students.
type StudentQuestion struct {
	ID      string          `json:"id"`
	Body    string          `json:"body"`
	Answers []StudentAnswer `json:"answers"`
}

// ForStudent strips answer keys and explanations.
func (q Question) ForStudent() StudentQuestion {
	out := StudentQuestion{ID: q.ID, Body: q.Body, Answers: make([]StudentAnswer, 0, len(q.Answers))}
	for _, a := range q.Answers {
		out.Answers = append(out.Answers, StudentAnswer{Label: a.Label, Body: a.Body})
	}
	return out
}

// LessonView is the lesson page payload.
type LessonView struct {
	Item          catalog.Item   `json:"item"`
	Path          catalog.Path   `json:"path"`
	Video         *Video         `json:"video,omitempty"`
	File          *File          `json:"file,omitempty"`
	QuestionCount int            `json:"questionCount"`
	Actions       access.Actions `json:"actions"`
}

// VideoInput carries admin writes for a video.
type VideoInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=2000"`
	URL             string `json:"url" validate:"required,url"`
	DurationSeconds int    `json:"durationSeconds" validate:"gte=0"`
	IsPublic        bool   `json:"isPublic"`
}

// FileInput carries admin writes for a file.
type FileInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	URL         string `json:"url" validate:"required,url"`
	FileType    string `json:"fileType" validate:"max=32"`
	IsPublic    bool   `json:"isPublic"`
}

// AnswerInput is one choice of a QuestionInput.
type AnswerInput struct {
	Label     string `json:"label" validate:"required,oneof=a b c d"`
	Body      string `json:"body" validate:"required,max=2000"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuestionInput carries admin writes for a question.
type QuestionInput struct {
	Body        string        `json:"body" validate:"required,max=10000"`
	Explanation string        `json:"explanation" validate:"max=10000"`
	Answers     []AnswerInput `json:"answers" validate:"min=2,max=4,dive"`
}
