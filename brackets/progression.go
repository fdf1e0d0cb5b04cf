package brackets

import (
	"sort"

	"github.com/beachcomp/tournament-engine/models"
)

// Diff is the outcome of one progression sweep. Updated holds every match
// whose stored state changed (already mutated in place); ClearedIDs is the
// subset whose finalized result had to be discarded because an upstream
// outcome changed; ParticipantChangedIDs lists matches whose participant ids
// moved, meaning their scoreboard must be renamed and reset.
type Diff struct {
	Updated               []*models.Match
	ClearedIDs            []int
	ParticipantChangedIDs []int
}

func (d Diff) Empty() bool {
	return len(d.Updated) == 0
}

// Recompute resolves every dependent participant slot in a bracket from the
// current results of its source matches, cascading through the bracket in a
// single ordered sweep.
//
// Matches are processed sorted by round, court name as tie-break. Because
// template validation guarantees every source reference points at a strictly
// earlier round, later matches only read fields this same pass has already
// settled, so one sweep propagates any change transitively; no recursive
// revisits are needed. The function is pure with respect to external state:
// it takes the full match set, mutates the affected matches, and reports the
// diff for the caller to persist and announce. Running it again with no new
// finalized results yields an empty diff.
func Recompute(matches []*models.Match) Diff {
	byID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	ordered := make([]*models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := roundOf(ordered[i]), roundOf(ordered[j])
		if ri != rj {
			return ri < rj
		}
		if ordered[i].Court != ordered[j].Court {
			return ordered[i].Court < ordered[j].Court
		}
		return ordered[i].ID < ordered[j].ID
	})

	var diff Diff
	for _, m := range ordered {
		changed := false

		if id := resolveSlot(byID, m.TeamAFromMatchID, m.TeamAFromSlot); id != nil {
			if m.TeamAID == nil || *m.TeamAID != *id {
				m.TeamAID = id
				changed = true
			}
		}
		if id := resolveSlot(byID, m.TeamBFromMatchID, m.TeamBFromSlot); id != nil {
			if m.TeamBID == nil || *m.TeamBID != *id {
				m.TeamBID = id
				changed = true
			}
		}

		if !changed {
			continue
		}

		diff.ParticipantChangedIDs = append(diff.ParticipantChangedIDs, m.ID)
		if m.Status == models.MatchStatusFinal {
			// The adjudicated record is stale, but the scoring device is not
			// wiped here, so the match goes back to ended, not scheduled.
			m.Result = nil
			m.Status = models.MatchStatusEnded
			m.FinalizedAt = nil
			m.FinalizedBy = nil
			diff.ClearedIDs = append(diff.ClearedIDs, m.ID)
		}
		diff.Updated = append(diff.Updated, m)
	}
	return diff
}

// resolveSlot maps a (source match, winner|loser) reference onto a concrete
// team id. A source without a result leaves the slot untouched: an
// unresolved dependency is not an error, the slot simply stays TBD (or keeps
// the team resolved on an earlier pass until a different result replaces it).
func resolveSlot(byID map[int]*models.Match, fromMatchID *int, slot *models.MatchSlot) *int {
	if fromMatchID == nil || slot == nil {
		return nil
	}
	src, ok := byID[*fromMatchID]
	if !ok || src.Result == nil {
		return nil
	}
	var id int
	if *slot == models.SlotWinner {
		id = src.Result.WinnerTeamID
	} else {
		id = src.Result.LoserTeamID
	}
	return &id
}

func roundOf(m *models.Match) int {
	if m.BracketRound != nil {
		return *m.BracketRound
	}
	return 0
}
