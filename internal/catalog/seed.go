package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

// LoadSeed reads a YAML catalog file.
func LoadSeed(path string) (Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tree{}, fmt.Errorf("catalog: open seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes and normalises a YAML catalog. Names are NFC normalised,
// parent ids are filled in and a zero order falls back to the position in
// the file.
func ParseSeed(r io.Reader) (Tree, error) {
	var tree Tree
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tree); err != nil {
		return Tree{}, fmt.Errorf("catalog: decode seed: %w", err)
	}
	seen := make(map[string]NodeKind)
	claim := func(kind NodeKind, id, name string) error {
		if id == "" {
			return fmt.Errorf("catalog: %s without id: %w", kind, httpx.ErrValidation)
		}
		if name == "" {
			return fmt.Errorf("catalog: %s %q without name: %w", kind, id, httpx.ErrValidation)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("catalog: %s %q reuses the id of a %s: %w", kind, id, prev, httpx.ErrDuplicate)
		}
		seen[id] = kind
		return nil
	}

	for i := range tree.Sections {
		sec := &tree.Sections[i]
		normalise(&sec.ID, &sec.Name, &sec.NameEn, &sec.Order, i)
		if err := claim(KindSection, sec.ID, sec.Name); err != nil {
			return Tree{}, err
		}
		for j := range sec.Subjects {
			sub := &sec.Subjects[j]
			sub.SectionID = sec.ID
			normalise(&sub.ID, &sub.Name, &sub.NameEn, &sub.Order, j)
			if err := claim(KindSubject, sub.ID, sub.Name); err != nil {
				return Tree{}, err
			}
			for k := range sub.Categories {
				cat := &sub.Categories[k]
				cat.SubjectID = sub.ID
				normalise(&cat.ID, &cat.Name, &cat.NameEn, &cat.Order, k)
				if err := claim(KindCategory, cat.ID, cat.Name); err != nil {
					return Tree{}, err
				}
				for l := range cat.Chapters {
					ch := &cat.Chapters[l]
					ch.CategoryID = cat.ID
					normalise(&ch.ID, &ch.Name, &ch.NameEn, &ch.Order, l)
					if err := claim(KindChapter, ch.ID, ch.Name); err != nil {
						return Tree{}, err
					}
					for m := range ch.Items {
						it := &ch.Items[m]
						it.ChapterID = ch.ID
						normalise(&it.ID, &it.Name, &it.NameEn, &it.Order, m)
						if err := claim(KindItem, it.ID, it.Name); err != nil {
							return Tree{}, err
						}
					}
				}
			}
		}
	}
	return tree, nil
}

func normalise(id, name, nameEn *string, order *int, index int) {
	*id = strings.TrimSpace(*id)
	*name = normaliseName(*name)
	*nameEn = normaliseName(*nameEn)
	if *order == 0 {
		*order = index + 1
	}
}

// normaliseName trims and NFC-normalises Arabic and Latin names so that
// visually identical strings compare equal.
func normaliseName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// UnmarshalYAML defaults hasTest to true when the key is absent.
func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	type plain Item
	out := plain{HasTest: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*it = Item(out)
	return nil
}

// UnmarshalYAML defaults hasTests to true when the key is absent.
func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	type plain Category
	out := plain{HasTests: true}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*c = Category(out)
	return nil
}
