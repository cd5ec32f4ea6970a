// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"strings"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
)

// SatisfiedThreshold is the score a toy has to beat for the kid to be happy.
const SatisfiedThreshold = 2

// Score rates a toy against the request it was built for.
// Every tag equal to the liked tag adds one, every tag equal to the disliked
// tag removes one. Authoring data is inconsistently cased, so matching ignores case.
func Score(req request.Request, pieces toy.Pieces) int {
	score := 0
	for _, def := range pieces {
		if def == nil {
			continue
		}
		for _, tag := range def.Tags {
			if strings.EqualFold(tag, req.Likes) {
				score++
			}
			if strings.EqualFold(tag, req.Dislikes) {
				score--
			}
		}
	}
	return score
}

// IsSatisfied reports whether a score makes the kid happy.
func IsSatisfied(score int) bool {
	return score > SatisfiedThreshold
}
