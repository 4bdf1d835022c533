package automata

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crossCheck verifies every witness against stdlib regexp — used here only
// as a test oracle, never inside the enumerator itself.
func crossCheck(t *testing.T, pattern string, witnesses []string) {
	t.Helper()
	re, err := regexp.Compile(pattern)
	require.NoError(t, err)
	for _, w := range witnesses {
		assert.True(t, re.MatchString(w), "witness %q should match /%s/", w, pattern)
	}
}

func TestEnumerateLiteral(t *testing.T) {
	w, decision, err := Enumerate("^abc$", 5, 64)
	require.NoError(t, err)
	assert.Equal(t, StrategyStrict, decision.Strategy)
	require.Len(t, w, 1)
	assert.Equal(t, "abc", w[0])
}

func TestEnumerateAlternation(t *testing.T) {
	w, _, err := Enumerate("^(cat|dog)$", 5, 64)
	require.NoError(t, err)
	crossCheck(t, "^(cat|dog)$", w)
	assert.ElementsMatch(t, []string{"cat", "dog"}, w)
}

func TestEnumerateStarProducesShortestFirst(t *testing.T) {
	w, _, err := Enumerate("^a*$", 3, 16)
	require.NoError(t, err)
	crossCheck(t, "^a*$", w)
	assert.Equal(t, "", w[0])
}

func TestEnumerateSemverLikePattern(t *testing.T) {
	w, _, err := Enumerate(`^3\.1\.\d+(-.+)?$`, 3, 32)
	require.NoError(t, err)
	crossCheck(t, `^3\.1\.\d+(-.+)?$`, w)
	require.NotEmpty(t, w)
	assert.Equal(t, "3.1.0", w[0])
}

func TestEnumerateCharClassRange(t *testing.T) {
	w, _, err := Enumerate("^[a-c]$", 5, 8)
	require.NoError(t, err)
	crossCheck(t, "^[a-c]$", w)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, w)
}

func TestLiftRefusesEmptyLanguage(t *testing.T) {
	pa, err := Parse("^a$")
	require.NoError(t, err)
	pb, err := Parse("^b$")
	require.NoError(t, err)
	product := Intersect(Determinize(Build(pa)), Determinize(Build(pb)))
	decision := Lift(pa, product)
	assert.Equal(t, StrategyRefused, decision.Strategy)
	assert.NotEmpty(t, decision.Reason)
}

func TestEnumerateUnanchoredIsSubstringStrategy(t *testing.T) {
	_, decision, err := Enumerate("abc", 1, 8)
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, decision.Strategy)
}

func TestIsEmptyDetectsEmptyLanguage(t *testing.T) {
	pa, err := Parse("^a$")
	require.NoError(t, err)
	pb, err := Parse("^b$")
	require.NoError(t, err)
	product := Intersect(Determinize(Build(pa)), Determinize(Build(pb)))
	assert.True(t, IsEmpty(product))
}

func TestIntersectRestrictsLanguage(t *testing.T) {
	pa, err := Parse("^a+$")
	require.NoError(t, err)
	pb, err := Parse("^.{2,3}$")
	require.NoError(t, err)
	da := Determinize(Build(pa))
	db := Determinize(Build(pb))
	product := Intersect(da, db)
	w := Witnesses(product, 5, 8)
	for _, s := range w {
		assert.GreaterOrEqual(t, len(s), 2)
		assert.LessOrEqual(t, len(s), 3)
		for _, r := range s {
			assert.Equal(t, 'a', r)
		}
	}
}
