package brackets

import (
	"math"
	"sort"

	"github.com/beachcomp/tournament-engine/models"
)

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two points in kilometers.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// AssignReferees re-derives the referee team for every bracket match from the
// template's declarative rule table. seeds maps 1-based template seeds onto
// team ids; matches maps template keys onto the bracket's current matches;
// courts maps court keys ("facility/name") onto court metadata for the
// distance tie-break.
//
// A rule is eligible when it names a seed, or when its source match already
// has a result. Candidates currently playing in the same round are skipped:
// a team cannot referee one court while competing on another. With several
// eligible candidates the team closest to the match's court referees; teams
// without a location sort last, ties break on team id. Matches whose referee
// changed are returned for persistence.
func AssignReferees(
	tpl *Template,
	matches map[string]*models.Match,
	seeds []int,
	teams map[int]*models.Team,
	courts map[string]models.Court,
) []*models.Match {
	playingInRound := participantsByRound(tpl, matches, seeds)

	var changed []*models.Match
	for _, tm := range tpl.Matches {
		m, ok := matches[tm.Key]
		if !ok || len(tm.RefRules) == 0 {
			continue
		}

		var candidates []int
		for _, rule := range tm.RefRules {
			var id *int
			switch {
			case rule.Seed != nil:
				// A zero seed entry means the team is unknown; skip the rule.
				if *rule.Seed >= 1 && *rule.Seed <= len(seeds) && seeds[*rule.Seed-1] != 0 {
					v := seeds[*rule.Seed-1]
					id = &v
				}
			case rule.Source != nil:
				src, ok := matches[rule.Source.MatchKey]
				if ok && src.Result != nil {
					v := src.Result.WinnerTeamID
					if rule.Source.Slot == models.SlotLoser {
						v = src.Result.LoserTeamID
					}
					id = &v
				}
			}
			if id == nil {
				continue
			}
			if *id == deref(m.TeamAID) || *id == deref(m.TeamBID) {
				continue
			}
			if playingInRound[tm.Round][*id] && !isParticipant(m, *id) {
				continue
			}
			candidates = append(candidates, *id)
		}
		candidates = dedupe(candidates)
		if len(candidates) == 0 {
			continue
		}

		if len(candidates) > 1 {
			court := courts[m.Facility+"/"+m.Court]
			sortByDistance(candidates, teams, court)
		}

		ref := candidates[0]
		if len(m.RefereeTeamIDs) == 1 && m.RefereeTeamIDs[0] == ref {
			continue
		}
		m.RefereeTeamIDs = []int{ref}
		changed = append(changed, m)
	}
	return changed
}

// participantsByRound collects, per template round, the team ids already
// known to play in that round (resolved slots plus template seeds).
func participantsByRound(tpl *Template, matches map[string]*models.Match, seeds []int) map[int]map[int]bool {
	byRound := make(map[int]map[int]bool)
	mark := func(round int, id *int) {
		if id == nil {
			return
		}
		if byRound[round] == nil {
			byRound[round] = make(map[int]bool)
		}
		byRound[round][*id] = true
	}
	for _, tm := range tpl.Matches {
		if m, ok := matches[tm.Key]; ok {
			mark(tm.Round, m.TeamAID)
			mark(tm.Round, m.TeamBID)
			continue
		}
		if tm.SeedA != nil && *tm.SeedA >= 1 && *tm.SeedA <= len(seeds) {
			v := seeds[*tm.SeedA-1]
			mark(tm.Round, &v)
		}
		if tm.SeedB != nil && *tm.SeedB >= 1 && *tm.SeedB <= len(seeds) {
			v := seeds[*tm.SeedB-1]
			mark(tm.Round, &v)
		}
	}
	return byRound
}

func sortByDistance(candidates []int, teams map[int]*models.Team, court models.Court) {
	dist := func(id int) float64 {
		t, ok := teams[id]
		if !ok || t.Lat == nil || t.Lon == nil {
			return math.MaxFloat64
		}
		return haversineKm(*t.Lat, *t.Lon, court.Lat, court.Lon)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := dist(candidates[i]), dist(candidates[j])
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})
}

func isParticipant(m *models.Match, id int) bool {
	return deref(m.TeamAID) == id || deref(m.TeamBID) == id
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
