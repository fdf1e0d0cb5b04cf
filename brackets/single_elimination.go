package brackets

import (
	"fmt"
	"math"

	"github.com/beachcomp/tournament-engine/models"
)

// node is one advancing slot while building the elimination tree: a concrete
// seed, the winner of an earlier match, or a bye placeholder.
type node struct {
	seed   *int
	source *SourceRef
	isBye  bool
}

// GenerateSingleElimination builds a generic N-seed single-elimination
// template with standard seeding (seed 1 meets the lowest seed first, byes go
// to the top seeds). No match is emitted for a bye; the seeded team advances
// straight into the next round. This generalizes the five-seed
// pairing-and-advancement pattern to arbitrary bracket sizes.
func GenerateSingleElimination(seedCount int) (*Template, error) {
	if seedCount < 2 {
		return nil, fmt.Errorf("single elimination requires at least 2 seeds, got %d", seedCount)
	}

	numRounds := int(math.Ceil(math.Log2(float64(seedCount))))
	bracketSize := 1 << uint(numRounds)

	// Seed placement order for a full bracket: repeatedly interleave each
	// seed with its mirror so seeds 1 and 2 can only meet in the final.
	order := []int{1, 2}
	for len(order) < bracketSize {
		next := make([]int, 0, len(order)*2)
		mirror := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, mirror-s)
		}
		order = next
	}

	current := make([]node, bracketSize)
	var byeSeeds []int
	for i, s := range order {
		if s <= seedCount {
			s := s
			current[i] = node{seed: &s}
		} else {
			current[i] = node{isBye: true}
			// The seed paired against this bye is idle in round 1.
			byeSeeds = append(byeSeeds, order[i^1])
		}
	}

	tpl := &Template{
		Name:      fmt.Sprintf("single_elim_%d", seedCount),
		SeedCount: seedCount,
	}

	for round := 1; round <= numRounds; round++ {
		next := make([]node, 0, len(current)/2)
		orderInRound := 0

		for i := 0; i < len(current); i += 2 {
			a, b := current[i], current[i+1]

			switch {
			case a.isBye && b.isBye:
				next = append(next, node{isBye: true})
			case b.isBye:
				next = append(next, a)
			case a.isBye:
				next = append(next, b)
			default:
				orderInRound++
				key := fmt.Sprintf("R%dM%d", round, orderInRound)
				tm := TemplateMatch{Key: key, Round: round, OrderInRound: orderInRound}
				tm.SeedA, tm.SourceA = a.seed, a.source
				tm.SeedB, tm.SourceB = b.seed, b.source
				tm.RefRules = refRulesFor(a, b, byeSeeds)
				tpl.Matches = append(tpl.Matches, tm)
				next = append(next, node{source: &SourceRef{MatchKey: key, Slot: models.SlotWinner}})
			}
		}
		current = next
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

// refRulesFor derives the structural referee candidates for a match: the
// losers of the matches feeding its slots, or the seeds idle on a round-1 bye
// when no slot is fed by an earlier match.
func refRulesFor(a, b node, byeSeeds []int) []RefRule {
	var rules []RefRule
	if a.source != nil {
		rules = append(rules, RefRule{Source: &SourceRef{MatchKey: a.source.MatchKey, Slot: models.SlotLoser}})
	}
	if b.source != nil {
		rules = append(rules, RefRule{Source: &SourceRef{MatchKey: b.source.MatchKey, Slot: models.SlotLoser}})
	}
	if len(rules) > 0 {
		return rules
	}
	for _, s := range byeSeeds {
		s := s
		rules = append(rules, RefRule{Seed: &s})
	}
	return rules
}
