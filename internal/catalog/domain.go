// Package catalog serves the course tree: sections, subjects, categories,
// chapters and items (lessons).
package catalog

import "time"

// NodeKind names one level of the course tree.
type NodeKind string

const (
	KindSection  NodeKind = "section"
	KindSubject  NodeKind = "subject"
	KindCategory NodeKind = "category"
	KindChapter  NodeKind = "chapter"
	KindItem     NodeKind = "item"
)

// Valid reports whether k is one of the five tree levels.
func (k NodeKind) Valid() bool {
	switch k {
	case KindSection, KindSubject, KindCategory, KindChapter, KindItem:
		return true
	}
	return false
}

// Section is the top level of the tree.
type Section struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	NameEn   string    `json:"nameEn,omitempty" yaml:"nameEn"`
	Order    int       `json:"order" yaml:"order"`
	Subjects []Subject `json:"subjects,omitempty" yaml:"subjects"`
}

// Subject belongs to a section.
type Subject struct {
	ID         string     `json:"id" yaml:"id"`
	SectionID  string     `json:"sectionId" yaml:"-"`
	Name       string     `json:"name" yaml:"name"`
	NameEn     string     `json:"nameEn,omitempty" yaml:"nameEn"`
	Order      int        `json:"order" yaml:"order"`
	Categories []Category `json:"categories,omitempty" yaml:"categories"`
}

// Category belongs to a subject.
type Category struct {
	ID        string    `json:"id" yaml:"id"`
	SubjectID string    `json:"subjectId" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	NameEn    string    `json:"nameEn,omitempty" yaml:"nameEn"`
	HasTests  bool      `json:"hasTests" yaml:"hasTests"`
	Order     int       `json:"order" yaml:"order"`
	Chapters  []Chapter `json:"chapters,omitempty" yaml:"chapters"`
}

// Chapter groups items inside a category.
type Chapter struct {
	ID         string `json:"id" yaml:"id"`
	CategoryID string `json:"categoryId" yaml:"-"`
	Name       string `json:"name" yaml:"name"`
	NameEn     string `json:"nameEn,omitempty" yaml:"nameEn"`
	Order      int    `json:"order" yaml:"order"`
	Items      []Item `json:"items,omitempty" yaml:"items"`
}

// Item is a single lesson.
type Item struct {
	ID        string `json:"id" yaml:"id"`
	ChapterID string `json:"chapterId" yaml:"-"`
	Name      string `json:"name" yaml:"name"`
	NameEn    string `json:"nameEn,omitempty" yaml:"nameEn"`
	HasTest   bool   `json:"hasTest" yaml:"hasTest"`
	Order     int    `json:"order" yaml:"order"`
}

// Node is a flat view of any tree level.
type Node struct {
	Kind     NodeKind `json:"kind"`
	ID       string   `json:"id"`
	ParentID string   `json:"parentId,omitempty"`
	Name     string   `json:"name"`
	NameEn   string   `json:"nameEn,omitempty"`
	Order    int      `json:"order"`
	HasTest  bool     `json:"hasTest"`
}

// Tree is the full nested catalog.
type Tree struct {
	Sections []Section `json:"sections" yaml:"sections"`
	BuiltAt  time.Time `json:"builtAt" yaml:"-"`
}

// Path names every ancestor of an item. Trailing fields may be empty when
// the path stops above the item level.
type Path struct {
	SectionID  string `json:"sectionId"`
	SubjectID  string `json:"subjectId"`
	CategoryID string `json:"categoryId,omitempty"`
	ChapterID  string `json:"chapterId,omitempty"`
	ItemID     string `json:"itemId,omitempty"`
}

// ChapterInput carries admin writes for chapters.
type ChapterInput struct {
	ID         string `json:"id" validate:"omitempty,max=64,excludesall= /"`
	CategoryID string `json:"categoryId" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,max=200"`
	NameEn     string `json:"nameEn" validate:"max=200"`
	Order      int    `json:"order" validate:"gte=0"`
}

// ItemInput carries admin writes for items.
type ItemInput struct {
	ID        string `json:"id" validate:"omitempty,max=64,excludesall= /"`
	ChapterID string `json:"chapterId" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=200"`
	NameEn    string `json:"nameEn" validate:"max=200"`
	HasTest   *bool  `json:"hasTest"`
	Order     int    `json:"order" validate:"gte=0"`
}
