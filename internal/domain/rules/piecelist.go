package rules

import (
	"math/rand"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
)

// Filler draws one random piece used to top a round's list up to its target.
type Filler func(r *rand.Rand) *piece.Definition

// BuildFromSets lists every piece of every set (set order, then piece order),
// tops it up with fillers to target and shuffles the whole list. Scripted
// pieces are guaranteed to be present, not to keep their position.
func BuildFromSets(sets []piece.Set, target int, fill Filler, r *rand.Rand) []*piece.Definition {
	var list []*piece.Definition
	for _, s := range sets {
		list = append(list, s.Pieces...)
	}
	list = topUp(list, target, fill, r)
	return Shuffle(list, r)
}

// BuildFromMandatorySet keeps the mandatory set in order at the head of the
// list followed by fillers. It is never shuffled.
func BuildFromMandatorySet(set piece.Set, target int, fill Filler, r *rand.Rand) []*piece.Definition {
	list := make([]*piece.Definition, 0, max(len(set.Pieces), target))
	list = append(list, set.Pieces...)
	return topUp(list, target, fill, r)
}

// Shuffle returns a uniformly random permutation of list (Fisher-Yates).
// The input slice is left untouched.
func Shuffle(list []*piece.Definition, r *rand.Rand) []*piece.Definition {
	out := make([]*piece.Definition, len(list))
	copy(out, list)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func topUp(list []*piece.Definition, target int, fill Filler, r *rand.Rand) []*piece.Definition {
	if fill == nil {
		return list
	}
	for len(list) < target {
		def := fill(r)
		if def == nil {
			break
		}
		list = append(list, def)
	}
	return list
}
