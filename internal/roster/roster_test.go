package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines_SkipsBlanksAndComments(t *testing.T) {
	lines := []string{
		"# header comment",
		"Alice",
		"",
		"   ",
		"#Bob",
		"Carol",
	}
	require.Equal(t, []string{"Alice", "Carol"}, ParseLines(lines))
}

func TestParseLines_ToleratesBOMOnFirstLine(t *testing.T) {
	lines := []string{"\uFEFFAlice", "Bob"}
	require.Equal(t, []string{"Alice", "Bob"}, ParseLines(lines))
}

func TestBuild_EmptyPopulation(t *testing.T) {
	_, err := Build([]string{"# only comments", ""}, nil)
	require.Error(t, err)
	require.True(t, IsEmptyPopulation(err))

	_, subset := IsSubsetViolation(err)
	require.False(t, subset)
}

func TestIsEmptyPopulation_RejectsOtherValidationErrors(t *testing.T) {
	_, err := ParseGender("plural")
	require.Error(t, err)
	require.False(t, IsEmptyPopulation(err))
}

func TestBuild_TagsFemaleParticipants(t *testing.T) {
	r, err := Build(
		[]string{"A", "B", "C", "D", "E"},
		[]string{"C", "D"},
	)
	require.NoError(t, err)
	require.Equal(t, 5, r.Len())

	assert.Equal(t, Female, r.At(2).Gender)
	assert.Equal(t, Female, r.At(3).Gender)
	assert.Equal(t, Male, r.At(0).Gender)
	assert.Equal(t, []string{"C", "D"}, r.FemaleIdentities())

	idx, ok := r.IndexOf("E")
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	_, ok = r.IndexOf("Z")
	assert.False(t, ok)
}

func TestBuild_SubsetViolationListsOffenders(t *testing.T) {
	_, err := Build(
		[]string{"A", "B"},
		[]string{"Z", "B", "Y"},
	)
	require.Error(t, err)
	require.False(t, IsEmptyPopulation(err))

	invalid, ok := IsSubsetViolation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Y", "Z"}, invalid)
}

func TestBuild_IdentityKeepsRawLineDisplayNameTrimmed(t *testing.T) {
	r, err := Build([]string{"  Alice  "}, nil)
	require.NoError(t, err)

	p := r.At(0)
	assert.Equal(t, "  Alice  ", p.Identity)
	assert.Equal(t, "Alice", p.DisplayName)

	_, ok := r.IndexOf("  Alice  ")
	assert.True(t, ok)
	_, ok = r.IndexOf("Alice")
	assert.False(t, ok)
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("female")
	require.NoError(t, err)
	require.Equal(t, Female, g)

	_, err = ParseGender("other")
	require.Error(t, err)
}
