package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/internal/catalog"
	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

func TestAssembleSortsByOrder(t *testing.T) {
	tree := sampleTree()
	require.Len(t, tree.Sections, 2)
	assert.Equal(t, "section_tahseel", tree.Sections[0].ID)
	assert.Equal(t, "subject_verbal", tree.Sections[1].Subjects[0].ID)

	ch, err := tree.Chapter(verbalPath)
	require.NoError(t, err)
	require.Len(t, ch.Items, 2)
	assert.Equal(t, "item_1", ch.Items[0].ID)
}

func TestTreeLookupsRejectForeignParents(t *testing.T) {
	tree := sampleTree()

	_, err := tree.Item(verbalPath)
	require.NoError(t, err)

	wrongSection := verbalPath
	wrongSection.SectionID = "section_tahseel"
	_, err = tree.Item(wrongSection)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	wrongChapter := verbalPath
	wrongChapter.ChapterID = "ch_missing"
	_, err = tree.Item(wrongChapter)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPathOf(t *testing.T) {
	tree := sampleTree()
	path, err := tree.PathOf("item_1")
	require.NoError(t, err)
	assert.Equal(t, verbalPath, path)

	_, err = tree.PathOf("nope")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestOutlineStopsAtSubjects(t *testing.T) {
	outline := sampleTree().Outline()
	for _, sec := range outline {
		for _, sub := range sec.Subjects {
			assert.Empty(t, sub.Categories, sub.ID)
		}
	}
}

func TestNodeKindValid(t *testing.T) {
	assert.True(t, catalog.KindItem.Valid())
	assert.False(t, catalog.NodeKind("lesson").Valid())
}
