package catalog

import (
	"fmt"
	"sort"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// Assemble nests flat rows into a Tree. Rows whose parent is missing are
// dropped; every level is sorted by order then id.
func Assemble(sections []Section, subjects []Subject, categories []Category, chapters []Chapter, items []Item) Tree {
	itemsBy := make(map[string][]Item)
	for _, it := range items {
		itemsBy[it.ChapterID] = append(itemsBy[it.ChapterID], it)
	}
	chaptersBy := make(map[string][]Chapter)
	for _, ch := range chapters {
		ch.Items = sortItems(itemsBy[ch.ID])
		chaptersBy[ch.CategoryID] = append(chaptersBy[ch.CategoryID], ch)
	}
	categoriesBy := make(map[string][]Category)
	for _, c := range categories {
		c.Chapters = sortChapters(chaptersBy[c.ID])
		categoriesBy[c.SubjectID] = append(categoriesBy[c.SubjectID], c)
	}
	subjectsBy := make(map[string][]Subject)
	for _, s := range subjects {
		s.Categories = sortCategories(categoriesBy[s.ID])
		subjectsBy[s.SectionID] = append(subjectsBy[s.SectionID], s)
	}
	out := make([]Section, 0, len(sections))
	for _, sec := range sections {
		sec.Subjects = sortSubjects(subjectsBy[sec.ID])
		out = append(out, sec)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].Order, out[j].Order, out[i].ID, out[j].ID) })
	return Tree{Sections: out}
}

// Section returns the section with id.
func (t Tree) Section(id string) (Section, error) {
	for _, s := range t.Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("catalog: section %q: %w", id, httpx.ErrNotFound)
}

// Subject returns the subject with id when it sits under sectionID.
func (t Tree) Subject(sectionID, subjectID string) (Subject, error) {
	sec, err := t.Section(sectionID)
	if err != nil {
		return Subject{}, err
	}
	for _, s := range sec.Subjects {
		if s.ID == subjectID {
			return s, nil
		}
	}
	return Subject{}, fmt.Errorf("catalog: subject %q in section %q: %w", subjectID, sectionID, httpx.ErrNotFound)
}

// Category returns the category addressed by path.
func (t Tree) Category(p Path) (Category, error) {
	sub, err := t.Subject(p.SectionID, p.SubjectID)
	if err != nil {
		return Category{}, err
	}
	for _, c := range sub.Categories {
		if c.ID == p.CategoryID {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("catalog: category %q: %w", p.CategoryID, httpx.ErrNotFound)
}

// Chapter returns the chapter addressed by path.
func (t Tree) Chapter(p Path) (Chapter, error) {
	cat, err := t.Category(p)
	if err != nil {
		return Chapter{}, err
	}
	for _, ch := range cat.Chapters {
		if ch.ID == p.ChapterID {
			return ch, nil
		}
	}
	return Chapter{}, fmt.Errorf("catalog: chapter %q: %w", p.ChapterID, httpx.ErrNotFound)
}

// Item returns the item addressed by path.
func (t Tree) Item(p Path) (Item, error) {
	ch, err := t.Chapter(p)
	if err != nil {
		return Item{}, err
	}
	for _, it := range ch.Items {
		if it.ID == p.ItemID {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("catalog: item %q: %w", p.ItemID, httpx.ErrNotFound)
}

// PathOf walks the tree to find the ancestors of itemID.
func (t Tree) PathOf(itemID string) (Path, error) {
	for _, sec := range t.Sections {
		for _, sub := range sec.Subjects {
			for _, cat := range sub.Categories {
				for _, ch := range cat.Chapters {
					for _, it := range ch.Items {
						if it.ID == itemID {
							return Path{SectionID: sec.ID, SubjectID: sub.ID, CategoryID: cat.ID, ChapterID: ch.ID, ItemID: it.ID}, nil
						}
					}
				}
			}
		}
	}
	return Path{}, fmt.Errorf("catalog: item %q: %w", itemID, httpx.ErrNotFound)
}

// kinds maps every id in the tree to its level.
func (t Tree) kinds() map[string]NodeKind {
	out := make(map[string]NodeKind)
	for _, sec := range t.Sections {
		out[sec.ID] = KindSection
		for _, sub := range sec.Subjects {
			out[sub.ID] = KindSubject
			for _, cat := range sub.Categories {
				out[cat.ID] = KindCategory
				for _, ch := range cat.Chapters {
					out[ch.ID] = KindChapter
					for _, it := range ch.Items {
						out[it.ID] = KindItem
					}
				}
			}
		}
	}
	return out
}

// Outline drops everything below subjects.
func (t Tree) Outline() []Section {
	out := make([]Section, 0, len(t.Sections))
	for _, sec := range t.Sections {
		subs := make([]Subject, 0, len(sec.Subjects))
		for _, s := range sec.Subjects {
			s.Categories = nil
			subs = append(subs, s)
		}
		sec.Subjects = subs
		out = append(out, sec)
	}
	return out
}

func less(oa, ob int, ida, idb string) bool {
	if oa != ob {
		return oa < ob
	}
	return ida < idb
}

func sortSubjects(in []Subject) []Subject {
	sort.SliceStable(in, func(i, j int) bool { return less(in[i].Order, in[j].Order, in[i].ID, in[j].ID) })
	return in
}

func sortCategories(in []Category) []Category {
	sort.SliceStable(in, func(i, j int) bool { return less(in[i].Order, in[j].Order, in[i].ID, in[j].ID) })
	return in
}

func sortChapters(in []Chapter) []Chapter {
	sort.SliceStable(in, func(i, j int) bool { return less(in[i].Order, in[j].Order, in[i].ID, in[j].ID) })
	return in
}

func sortItems(in []Item) []Item {
	sort.SliceStable(in, func(i, j int) bool { return less(in[i].Order, in[j].Order, in[i].ID, in[j].ID) })
	return in
}
