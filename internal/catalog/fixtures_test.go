package catalog_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

type memRepo struct {
	mu       sync.Mutex
	tree     catalog.Tree
	loads    int
	chapters map[string]catalog.Chapter
	items    map[string]catalog.Item
}

func newMemRepo() *memRepo {
	m := &memRepo{tree: sampleTree(), chapters: map[string]catalog.Chapter{}, items: map[string]catalog.Item{}}
	for _, sec := range m.tree.Sections {
		for _, sub := range sec.Subjects {
			for _, cat := range sub.Categories {
				for _, ch := range cat.Chapters {
					m.chapters[ch.ID] = ch
					for _, it := range ch.Items {
						m.items[it.ID] = it
					}
				}
			}
		}
	}
	return m
}

func (m *memRepo) LoadTree(ctx context.Context) (catalog.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.tree, nil
}

func (m *memRepo) GetNode(ctx context.Context, kind catalog.NodeKind, id string) (catalog.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case catalog.KindChapter:
		if ch, ok := m.chapters[id]; ok {
			return catalog.Node{Kind: kind, ID: id, ParentID: ch.CategoryID, Name: ch.Name}, nil
		}
	case catalog.KindItem:
		if it, ok := m.items[id]; ok {
			return catalog.Node{Kind: kind, ID: id, ParentID: it.ChapterID, Name: it.Name, HasTest: it.HasTest}, nil
		}
	default:
		for _, sec := range m.tree.Sections {
			if kind == catalog.KindSection && sec.ID == id {
				return catalog.Node{Kind: kind, ID: id, Name: sec.Name}, nil
			}
			for _, sub := range sec.Subjects {
				if kind == catalog.KindSubject && sub.ID == id {
					return catalog.Node{Kind: kind, ID: id, ParentID: sec.ID, Name: sub.Name}, nil
				}
				for _, cat := range sub.Categories {
					if kind == catalog.KindCategory && cat.ID == id {
						return catalog.Node{Kind: kind, ID: id, ParentID: sub.ID, Name: cat.Name, HasTest: cat.HasTests}, nil
					}
				}
			}
		}
	}
	return catalog.Node{}, fmt.Errorf("%s %q: %w", kind, id, httpx.ErrNotFound)
}

func (m *memRepo) KindOf(ctx context.Context, id string) (catalog.NodeKind, error) {
	for _, kind := range []catalog.NodeKind{catalog.KindSection, catalog.KindSubject, catalog.KindCategory, catalog.KindChapter, catalog.KindItem} {
		if _, err := m.GetNode(ctx, kind, id); err == nil {
			return kind, nil
		}
	}
	return "", fmt.Errorf("node %q: %w", id, httpx.ErrNotFound)
}

func (m *memRepo) InsertChapter(ctx context.Context, ch catalog.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters[ch.ID] = ch
	return nil
}

func (m *memRepo) UpdateChapter(ctx context.Context, ch catalog.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chapters[ch.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.chapters[ch.ID] = ch
	return nil
}

func (m *memRepo) DeleteChapter(ctx context.Context, id string) error {
	if _, ok := m.chapters[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.chapters, id)
	return nil
}

func (m *memRepo) InsertItem(ctx context.Context, it catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.ID] = it
	return nil
}

func (m *memRepo) UpdateItem(ctx context.Context, it catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.items[it.ID] = it
	return nil
}

func (m *memRepo) DeleteItem(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo) Import(ctx context.Context, tree catalog.Tree) error {
	m.tree = tree
	return nil
}

func sampleTree() catalog.Tree {
	return catalog.Assemble(
		[]catalog.Section{
			{ID: "section_qudrat", Name: "قدرات", Order: 2},
			{ID: "section_tahseel", Name: "تحصيلي", Order: 1},
		},
		[]catalog.Subject{
			{ID: "subject_quantitative", SectionID: "section_qudrat", Name: "كمي", Order: 2},
			{ID: "subject_verbal", SectionID: "section_qudrat", Name: "لفظي", Order: 1},
			{ID: "subject_math", SectionID: "section_tahseel", Name: "رياضيات", Order: 1},
			{ID: "subject_physics", SectionID: "section_tahseel", Name: "فيزياء", Order: 2},
		},
		[]catalog.Category{
			{ID: "cat_foundation", SubjectID: "subject_verbal", Name: "التأسيس", HasTests: true},
		},
		[]catalog.Chapter{
			{ID: "ch_1", CategoryID: "cat_foundation", Name: "التناظر اللفظي", Order: 1},
		},
		[]catalog.Item{
			{ID: "item_2", ChapterID: "ch_1", Name: "الدرس الثاني", Order: 2, HasTest: false},
			{ID: "item_1", ChapterID: "ch_1", Name: "الدرس الأول", Order: 1, HasTest: true},
		},
	)
}

var verbalPath = catalog.Path{
	SectionID:  "section_qudrat",
	SubjectID:  "subject_verbal",
	CategoryID: "cat_foundation",
	ChapterID:  "ch_1",
	ItemID:     "item_1",
}
