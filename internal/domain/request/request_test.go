package request

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNames = []string{"Ana", "Bruno", "Carla"}
	testTags  = []string{"robot", "pirate", "animal", "space"}
)

func newTestGenerator(t *testing.T, levels ...Level) *Generator {
	t.Helper()
	g, err := NewGenerator(testNames, testTags, 3, levels, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return g
}

func TestRandomNeverLikesWhatItDislikes(t *testing.T) {
	g := newTestGenerator(t)

	for i := 0; i < 5000; i++ {
		r := g.Random()
		require.NotEqual(t, r.Likes, r.Dislikes, "iteration %d", i)
		assert.Contains(t, testTags, r.Likes)
		assert.Contains(t, testTags, r.Dislikes)
		assert.Contains(t, testNames, r.Name)
		assert.GreaterOrEqual(t, r.MandatorySet, 0)
		assert.Less(t, r.MandatorySet, 3)
	}
}

func TestRandomWithTwoTagsAlwaysPicksTheOther(t *testing.T) {
	g, err := NewGenerator([]string{"Ana"}, []string{"red", "blue"}, 1, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	sawRed, sawBlue := false, false
	for i := 0; i < 200; i++ {
		r := g.Random()
		switch r.Likes {
		case "red":
			sawRed = true
			assert.Equal(t, "blue", r.Dislikes)
		case "blue":
			sawBlue = true
			assert.Equal(t, "red", r.Dislikes)
		}
	}
	assert.True(t, sawRed && sawBlue, "both tags should be liked at some point")
}

func TestRandomCoversDislikedTags(t *testing.T) {
	g := newTestGenerator(t)

	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		seen[g.Random().Dislikes] = true
	}
	assert.Len(t, seen, len(testTags))
}

func TestNewGeneratorValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewGenerator(nil, testTags, 1, nil, rng)
	assert.ErrorIs(t, err, ErrNoNames)

	_, err = NewGenerator(testNames, []string{"red", "red"}, 1, nil, rng)
	assert.ErrorIs(t, err, ErrTagVocabularyTooSmall)

	_, err = NewGenerator(testNames, testTags, 0, nil, rng)
	assert.ErrorIs(t, err, ErrNoSets)

	bad := Level{Request: Request{Name: "X", Likes: "robot", Dislikes: "robot"}}
	_, err = NewGenerator(testNames, testTags, 1, []Level{bad}, rng)
	assert.True(t, errors.Is(err, ErrInvalidLevel))

	outOfRange := Level{Request: Request{Likes: "robot", Dislikes: "pirate"}, IncludedSets: []int{4}}
	_, err = NewGenerator(testNames, testTags, 2, []Level{outOfRange}, rng)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestTagsDifferingOnlyInCaseAreOneTag(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewGenerator(testNames, []string{"Red", "red", "RED"}, 1, nil, rng)
	assert.ErrorIs(t, err, ErrTagVocabularyTooSmall)

	g, err := NewGenerator(testNames, []string{"Red", "red", "blue"}, 1, nil, rng)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		r := g.Random()
		require.False(t, strings.EqualFold(r.Likes, r.Dislikes), "iteration %d: %q vs %q", i, r.Likes, r.Dislikes)
		assert.NotEqual(t, "red", r.Likes, "first spelling is kept")
		assert.NotEqual(t, "red", r.Dislikes, "first spelling is kept")
	}

	sameTag := Level{Request: Request{Name: "X", Likes: "Space", Dislikes: "space"}}
	_, err = NewGenerator(testNames, testTags, 1, []Level{sameTag}, rng)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestForLevel(t *testing.T) {
	first := Level{Request: Request{Name: "Tutorial", Likes: "robot", Dislikes: "pirate"}, IncludedSets: []int{0}, MaxPieces: 6}
	second := Level{Request: Request{Name: "Second", Likes: "space", Dislikes: "animal"}, IncludedSets: []int{1, 2}, MaxPieces: 8}
	g := newTestGenerator(t, first, second)

	assert.Equal(t, 2, g.LevelCount())

	lvl, ok := g.ForLevel(0)
	require.True(t, ok)
	assert.Equal(t, "Tutorial", lvl.Request.Name)

	lvl, ok = g.ForLevel(1)
	require.True(t, ok)
	assert.Equal(t, 8, lvl.MaxPieces)

	_, ok = g.ForLevel(2)
	assert.False(t, ok)
	_, ok = g.ForLevel(-1)
	assert.False(t, ok)
}
