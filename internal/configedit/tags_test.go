package configedit

import (
	"math/rand"
	"sort"
	"testing"

	"pitchdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagSetScenario(t *testing.T) {
	t.Parallel()

	ts := NewTagSet([]string{"aws", "gcp"})
	require.True(t, ts.Add("azure"))
	require.True(t, ts.Remove("gcp"))

	assert.Equal(t, model.TagDiff{Add: []string{"azure"}, Remove: []string{"gcp"}}, ts.Diff())
	assert.True(t, ts.Dirty())

	ts.Commit()
	assert.Equal(t, []string{"aws", "azure"}, ts.Items())
	assert.False(t, ts.Dirty())
	assert.Equal(t, model.TagDiff{Add: []string{}, Remove: []string{}}, ts.Diff())
}

func TestTagSetAddRules(t *testing.T) {
	t.Parallel()

	ts := NewTagSet(nil)
	assert.True(t, ts.Add("  go "))
	assert.False(t, ts.Add("go"))
	assert.False(t, ts.Add("   "))
	assert.False(t, ts.Remove("rust"))
	assert.Equal(t, []string{"go"}, ts.Items())
}

func TestTagSetCommitIsDeepCopy(t *testing.T) {
	t.Parallel()

	ts := NewTagSet([]string{"a"})
	ts.Add("b")
	ts.Commit()
	ts.Remove("a")
	assert.Equal(t, []string{"a"}, ts.Diff().Remove)

	ts.Reset()
	assert.Equal(t, []string{"a", "b"}, ts.Items())
}

func TestTagSetStoredDuplicatesCanBeRemoved(t *testing.T) {
	t.Parallel()

	ts := NewTagSet([]string{"go", "go", "rust"})
	assert.Equal(t, []string{"go", "rust"}, ts.Items())
	assert.False(t, ts.Dirty())

	require.True(t, ts.Remove("go"))
	assert.Equal(t, model.TagDiff{Add: []string{}, Remove: []string{"go"}}, ts.Diff())
}

func TestKeywordSetsCommitToSentSnapshot(t *testing.T) {
	t.Parallel()

	k := NewKeywordSets(map[string][]string{"search_keywords": {"golang"}})
	kw := k.Section("search_keywords")
	kw.Add("rust")
	sent := k.Snapshot()
	assert.Equal(t, []string{"rust"}, k.Payload()["search_keywords"].Add)

	// Added while the save was in flight.
	kw.Add("zig")
	k.CommitTo(sent)

	assert.Equal(t, []string{"golang", "rust", "zig"}, kw.Items())
	assert.True(t, k.Dirty())
	assert.Equal(t, model.TagDiff{Add: []string{"zig"}, Remove: []string{}}, kw.Diff())
}

func TestComputeDiffIdempotent(t *testing.T) {
	t.Parallel()

	for _, x := range [][]string{nil, {}, {"a"}, {"a", "b", "c"}} {
		d := ComputeDiff(x, x)
		assert.Empty(t, d.Add)
		assert.Empty(t, d.Remove)
		assert.NotNil(t, d.Add)
		assert.NotNil(t, d.Remove)
	}
}

func TestComputeDiffRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"a", "b", "c", "d", "e", "f", "g"}
	pick := func() []string {
		ts := NewTagSet(nil)
		n := rng.Intn(len(alphabet) + 1)
		for i := 0; i < n; i++ {
			ts.Add(alphabet[rng.Intn(len(alphabet))])
		}
		return ts.Items()
	}

	for i := 0; i < 200; i++ {
		original, current := pick(), pick()
		d := ComputeDiff(original, current)

		applied := NewTagSet(original)
		for _, v := range d.Add {
			applied.Add(v)
		}
		for _, v := range d.Remove {
			applied.Remove(v)
		}
		got, want := applied.Items(), append([]string{}, current...)
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, "original=%v current=%v", original, current)
	}
}

func TestKeywordSetsPayloadCoversEverySection(t *testing.T) {
	t.Parallel()

	k := NewKeywordSets(map[string][]string{
		"search_keywords":     {"golang"},
		"preferred_countries": {"DE"},
	})
	assert.Equal(t, model.KeywordSections, k.Sections())
	assert.Nil(t, k.Section("nope"))

	k.Section("search_keywords").Add("rust")
	k.Section("preferred_countries").Remove("DE")
	require.True(t, k.Dirty())

	p := k.Payload()
	require.Len(t, p, len(model.KeywordSections))
	assert.Equal(t, []string{"rust"}, p["search_keywords"].Add)
	assert.Equal(t, []string{"DE"}, p["preferred_countries"].Remove)
	assert.True(t, p["neutral_countries"].Empty())

	k.Commit()
	assert.False(t, k.Dirty())
}
