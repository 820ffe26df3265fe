package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/statutefinder/internal/citation"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndDocuments(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := citation.Analyze("See 42 USC 1983 and 29 CFR 1910.1200.")
	rec, err := s.Save(ctx, "brief.txt", "abc123", a)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 2, rec.Total)

	docs, err := s.Documents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, rec.ID, docs[0].ID)
	assert.Equal(t, "brief.txt", docs[0].Filename)
	assert.Equal(t, "abc123", docs[0].ContentHash)
	assert.Equal(t, 2, docs[0].Unique)
	assert.False(t, docs[0].AnalyzedAt.IsZero())
}

func TestFindCitation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "one.txt", "h1", citation.Analyze("Claims under 42 USC 1983 fail."))
	require.NoError(t, err)
	_, err = s.Save(ctx, "two.txt", "h2", citation.Analyze("Compare 42 usc 1983 with 40 CFR 122.26."))
	require.NoError(t, err)

	hits, err := s.FindCitation(ctx, "42 USC 1983", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	filenames := []string{hits[0].Filename, hits[1].Filename}
	assert.ElementsMatch(t, []string{"one.txt", "two.txt"}, filenames)
	for _, h := range hits {
		assert.Equal(t, citation.USC, h.Family)
		assert.Contains(t, h.Context, h.Citation)
	}

	hits, err = s.FindCitation(ctx, "CFR", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "40 CFR 122.26", hits[0].Citation)
	assert.Equal(t, 25, hits[0].Position)

	hits, err = s.FindCitation(ctx, "Pub. L.", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFindCitation_EscapesWildcards(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "a.txt", "h", citation.Analyze("See 42 USC 1983."))
	require.NoError(t, err)

	hits, err := s.FindCitation(ctx, "%", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = s.FindCitation(ctx, "  ", 0)
	assert.Error(t, err)
}

func TestSave_CrossFamilyMatchesKeepFamilies(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	reg, err := citation.NewRegistry(
		mustCompile(t, "A", `\d+ USC \d+`),
		mustCompile(t, "B", `\d+ USC \d+`),
	)
	require.NoError(t, err)
	a := citation.NewAnalyzer(reg).Analyze("See 42 USC 1983.")

	_, err = s.Save(ctx, "x.txt", "h", a)
	require.NoError(t, err)

	hits, err := s.FindCitation(ctx, "1983", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.ElementsMatch(t, []citation.Family{"A", "B"}, []citation.Family{hits[0].Family, hits[1].Family})
	assert.Equal(t, hits[0].Context, hits[1].Context)
}

func TestSave_StoresCharacterPositions(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "mark.txt", "h", citation.Analyze("§ 5 and 40 CFR 122.26"))
	require.NoError(t, err)

	hits, err := s.FindCitation(ctx, "CFR", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 8, hits[0].Position)
	assert.Equal(t, "§ 5 and 40 CFR 122.26", hits[0].Context)
}

func mustCompile(t *testing.T, family citation.Family, expr string) citation.PatternSpec {
	t.Helper()
	spec, err := citation.Compile(family, expr)
	require.NoError(t, err)
	return spec
}
