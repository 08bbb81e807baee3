package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

const seedYAML = `
sections:
  - id: section_qudrat
    name: "  قدرات  "
    nameEn: Qudrat
    subjects:
      - id: subject_verbal
        name: لفظي
        categories:
          - id: cat_foundation
            name: التأسيس
            chapters:
              - id: ch_1
                name: التناظر اللفظي
                items:
                  - id: item_1
                    name: الدرس الأول
                  - id: item_2
                    name: الدرس الثاني
                    hasTest: false
`

func TestParseSeed(t *testing.T) {
	tree, err := catalog.ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, tree.Sections, 1)

	sec := tree.Sections[0]
	assert.Equal(t, "قدرات", sec.Name)
	assert.Equal(t, 1, sec.Order)

	sub := sec.Subjects[0]
	assert.Equal(t, "section_qudrat", sub.SectionID)

	cat := sub.Categories[0]
	assert.True(t, cat.HasTests, "hasTests defaults to true")

	items := cat.Chapters[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "ch_1", items[0].ChapterID)
	assert.True(t, items[0].HasTest)
	assert.False(t, items[1].HasTest)
	assert.Equal(t, 2, items[1].Order)
}

func TestParseSeedNormalisesNames(t *testing.T) {
	decomposed := norm.NFD.String("é")
	tree, err := catalog.ParseSeed(strings.NewReader("sections:\n  - id: s\n    name: \"caf" + decomposed + "\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "caf"+norm.NFC.String("é"), tree.Sections[0].Name)
}

func TestParseSeedRejectsDuplicates(t *testing.T) {
	doc := `
sections:
  - id: s
    name: one
  - id: s
    name: two
`
	_, err := catalog.ParseSeed(strings.NewReader(doc))
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestParseSeedRejectsIDsReusedAcrossLevels(t *testing.T) {
	doc := `
sections:
  - id: s
    name: one
    subjects:
      - id: shared
        name: subject
        categories:
          - id: c
            name: category
            chapters:
              - id: shared
                name: chapter
`
	_, err := catalog.ParseSeed(strings.NewReader(doc))
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestParseSeedRequiresNames(t *testing.T) {
	_, err := catalog.ParseSeed(strings.NewReader("sections:\n  - id: s\n"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
