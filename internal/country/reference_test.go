package country

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	ref, err := ParseReference([]byte(`{
		"United Kingdom": ["BBC News", "The Guardian"],
		"Japan": ["NHK", "The Japan Times"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, 4, ref.Len())

	c, ok := ref.Exact("bbc news")
	assert.True(t, ok)
	assert.Equal(t, "United Kingdom", c)

	_, ok = ref.Exact("BBC")
	assert.False(t, ok)
}

func TestParseReference_SchemaViolation(t *testing.T) {
	for _, doc := range []string{
		`["BBC News"]`,
		`{"United Kingdom": "BBC News"}`,
		`{"United Kingdom": [1, 2]}`,
		`{"": ["BBC News"]}`,
	} {
		_, err := ParseReference([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestParseReference_InvalidJSON(t *testing.T) {
	_, err := ParseReference([]byte(`{`))
	assert.Error(t, err)
}

func TestNewReference_ConflictFirstSortedCountryWins(t *testing.T) {
	ref := NewReference(map[string][]string{
		"Ireland":        {"The Times"},
		"United Kingdom": {"The Times"},
	})
	c, ok := ref.Exact("The Times")
	require.True(t, ok)
	assert.Equal(t, "Ireland", c)
	assert.Equal(t, 1, ref.Len())
}

func TestReference_ContainsLongestFirst(t *testing.T) {
	ref := NewReference(map[string][]string{
		"United States":  {"Times"},
		"India":          {"Times of India"},
		"United Kingdom": {"AB"},
	})

	c, ok := ref.Contains("The Times of India - Mumbai", 3)
	require.True(t, ok)
	assert.Equal(t, "India", c)

	c, ok = ref.Contains("Los Angeles Times", 3)
	require.True(t, ok)
	assert.Equal(t, "United States", c)

	_, ok = ref.Contains("ABC Radio", 3)
	assert.False(t, ok, "keys shorter than the minimum are ignored")

	c, ok = ref.Contains("ABC Radio", 2)
	require.True(t, ok)
	assert.Equal(t, "United Kingdom", c)
}

func TestReference_Nil(t *testing.T) {
	var ref *Reference
	_, ok := ref.Exact("x")
	assert.False(t, ok)
	_, ok = ref.Contains("x", 1)
	assert.False(t, ok)
	assert.Zero(t, ref.Len())
}

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_websites_by_country.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"France": ["Le Monde"]}`), 0o644))

	ref, err := LoadReference(path)
	require.NoError(t, err)
	c, ok := ref.Exact("Le Monde")
	assert.True(t, ok)
	assert.Equal(t, "France", c)

	ref, err = LoadReference(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, ref.Len())
	_, ok = ref.Exact("Le Monde")
	assert.False(t, ok)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"France": "Le Monde"}`), 0o644))
	_, err = LoadReference(bad)
	assert.Error(t, err)
}
