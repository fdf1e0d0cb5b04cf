// Package schedule assigns matches to (round block, court) slots. A round
// block is an ordinal time slot; matches in the same block run concurrently
// on different courts.
package schedule

import (
	"fmt"
	"sort"

	"github.com/beachcomp/tournament-engine/models"
)

// MatchSet groups the matches of one pool (or one bracket) for scheduling.
// HomeCourt is the court key ("facility/name") the set's matches should
// gravitate to; empty means no preference.
type MatchSet struct {
	Key       string
	HomeCourt string
	Matches   []*models.Match
}

// AssignSlots packs every match into (round block, court) pairs such that no
// court hosts two matches in the same block, blocks start at startBlock and
// exactly ceil(total/courtCount) blocks are used. Matches are interleaved
// across sets so each pool progresses one match per block where possible, and
// within a block a match takes its set's home court when that court is free.
//
// preferFacility, when non-empty, moves that facility's courts to the front
// of the rotation; crossover stages use it to keep play concentrated where
// the source pools were.
func AssignSlots(sets []MatchSet, courts []models.Court, startBlock int, preferFacility string) error {
	if len(courts) == 0 {
		return fmt.Errorf("cannot schedule matches without courts")
	}
	if startBlock < 1 {
		return fmt.Errorf("start round block must be >= 1, got %d", startBlock)
	}

	ordered := orderCourts(courts, preferFacility)

	// Interleave: one match from each set per pass, keeping pool order.
	var queue []pending
	idx := make([]int, len(sets))
	for remaining := true; remaining; {
		remaining = false
		for si := range sets {
			if idx[si] < len(sets[si].Matches) {
				queue = append(queue, pending{sets[si].Matches[idx[si]], sets[si].HomeCourt})
				idx[si]++
				remaining = true
			}
		}
	}

	courtCount := len(ordered)
	for start := 0; start < len(queue); start += courtCount {
		end := start + courtCount
		if end > len(queue) {
			end = len(queue)
		}
		block := startBlock + start/courtCount
		assignBlock(queue[start:end], ordered, block)
	}
	return nil
}

type pending struct {
	match     *models.Match
	homeCourt string
}

// assignBlock places one block's worth of matches onto distinct courts,
// honoring home-court preferences first.
func assignBlock(matches []pending, courts []models.Court, block int) {
	taken := make(map[string]bool, len(courts))
	byKey := make(map[string]models.Court, len(courts))
	for _, c := range courts {
		byKey[c.Key()] = c
	}

	place := func(m *models.Match, c models.Court) {
		m.RoundBlock = block
		m.Facility = c.Facility
		m.Court = c.Name
		taken[c.Key()] = true
	}

	var rest []*models.Match
	for _, p := range matches {
		if c, ok := byKey[p.homeCourt]; ok && !taken[p.homeCourt] {
			place(p.match, c)
			continue
		}
		rest = append(rest, p.match)
	}
	for _, m := range rest {
		for _, c := range courts {
			if !taken[c.Key()] {
				place(m, c)
				break
			}
		}
	}
}

// orderCourts returns the court rotation, preferred facility first. Order is
// otherwise stable so repeated generation is deterministic.
func orderCourts(courts []models.Court, preferFacility string) []models.Court {
	out := make([]models.Court, len(courts))
	copy(out, courts)
	if preferFacility == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := out[i].Facility == preferFacility
		pj := out[j].Facility == preferFacility
		return pi && !pj
	})
	return out
}

// PreferredFacility picks the facility to concentrate a crossover stage on:
// the facility hosting most of the source pools, falling back to the facility
// with more available courts when the source pools are spread evenly.
func PreferredFacility(sourcePools []models.Pool, courts []models.Court) string {
	poolCount := make(map[string]int)
	for _, p := range sourcePools {
		if p.Facility != "" {
			poolCount[p.Facility]++
		}
	}
	courtCount := make(map[string]int)
	for _, c := range courts {
		courtCount[c.Facility]++
	}

	var best string
	for f := range courtCount {
		if best == "" {
			best = f
			continue
		}
		if poolCount[f] != poolCount[best] {
			if poolCount[f] > poolCount[best] {
				best = f
			}
			continue
		}
		if courtCount[f] != courtCount[best] {
			if courtCount[f] > courtCount[best] {
				best = f
			}
			continue
		}
		if f < best {
			best = f
		}
	}
	return best
}

// NextStartBlock returns the first round block available to a stage: strictly
// after the highest block used by any earlier stage, so the whole-day
// schedule stays monotonic even when stages are generated out of order.
func NextStartBlock(existing []*models.Match, earlierStage func(stageKey string) bool) int {
	maxBlock := 0
	for _, m := range existing {
		if earlierStage(m.StageKey) && m.RoundBlock > maxBlock {
			maxBlock = m.RoundBlock
		}
	}
	return maxBlock + 1
}
