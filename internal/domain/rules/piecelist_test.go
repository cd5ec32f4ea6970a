package rules

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
)

func makeSet(name string, n int) piece.Set {
	s := piece.Set{Name: name}
	for i := 0; i < n; i++ {
		k := piece.Kinds[i%piece.KindCount]
		s.Pieces = append(s.Pieces, &piece.Definition{ID: fmt.Sprintf("%s_%d", name, i), Kind: k})
	}
	return s
}

var fillerPiece = &piece.Definition{ID: "filler", Kind: piece.KindBody}

func constFiller(*rand.Rand) *piece.Definition { return fillerPiece }

func countOf(list []*piece.Definition) map[*piece.Definition]int {
	m := make(map[*piece.Definition]int)
	for _, d := range list {
		m[d]++
	}
	return m
}

func TestBuildFromSetsContainsScriptedPieces(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	sets := []piece.Set{makeSet("robot", 3), makeSet("pirate", 4)}

	for _, target := range []int{0, 5, 7, 12} {
		out := BuildFromSets(sets, target, constFiller, r)
		assert.Len(t, out, max(7, target), "target %d", target)

		counts := countOf(out)
		for _, s := range sets {
			for _, d := range s.Pieces {
				assert.Equal(t, 1, counts[d], "piece %s target %d", d.ID, target)
			}
		}
		assert.Equal(t, max(0, target-7), counts[fillerPiece])
	}
}

func TestBuildFromSetsShufflesScriptedContent(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	sets := []piece.Set{makeSet("robot", 6)}

	moved := false
	for i := 0; i < 50 && !moved; i++ {
		out := BuildFromSets(sets, 6, constFiller, r)
		for j, d := range out {
			if d != sets[0].Pieces[j] {
				moved = true
				break
			}
		}
	}
	assert.True(t, moved, "scripted list should not always keep set order")
}

func TestBuildFromMandatorySetKeepsOrder(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	set := makeSet("space", 4)

	out := BuildFromMandatorySet(set, 9, constFiller, r)
	require.Len(t, out, 9)
	for i, d := range set.Pieces {
		assert.Same(t, d, out[i])
	}
	for _, d := range out[4:] {
		assert.Same(t, fillerPiece, d)
	}
}

func TestBuildFromMandatorySetLargerThanTarget(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	set := makeSet("space", 6)

	out := BuildFromMandatorySet(set, 2, constFiller, r)
	assert.Equal(t, set.Pieces, out)
}

func TestBuildEmptyContent(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	assert.Empty(t, BuildFromSets(nil, 0, constFiller, r))
	assert.Empty(t, BuildFromMandatorySet(piece.Set{}, -3, constFiller, r))
	assert.Empty(t, BuildFromMandatorySet(piece.Set{}, 4, nil, r))
}

func TestShuffleIsPermutation(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	list := makeSet("mix", 10).Pieces
	before := append([]*piece.Definition(nil), list...)

	nonIdentity := 0
	for trial := 0; trial < 200; trial++ {
		out := Shuffle(list, r)
		require.Len(t, out, len(list))
		assert.Equal(t, countOf(list), countOf(out))
		for i := range out {
			if out[i] != list[i] {
				nonIdentity++
				break
			}
		}
	}

	assert.Equal(t, before, list, "input must not be mutated")
	assert.Greater(t, nonIdentity, 150)
}

func TestShuffleSpreadsPositions(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	list := makeSet("mix", 4).Pieces

	// Every element should visit every position over enough trials.
	seen := make(map[*piece.Definition]map[int]bool)
	for trial := 0; trial < 1000; trial++ {
		for pos, d := range Shuffle(list, r) {
			if seen[d] == nil {
				seen[d] = make(map[int]bool)
			}
			seen[d][pos] = true
		}
	}
	for _, d := range list {
		assert.Len(t, seen[d], len(list), d.ID)
	}
}
