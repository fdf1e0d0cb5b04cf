package brackets

import "github.com/beachcomp/tournament-engine/models"

// SeedsFromMatches reconstructs a bracket's seed list from its stored matches:
// wherever the template placed a seed directly into a participant slot, the
// concrete team id recorded there is that seed's team. Slots the template
// never seeded (only reachable via byes on larger brackets) stay zero and make
// the corresponding referee rules ineligible rather than wrong.
func SeedsFromMatches(tpl *Template, matches map[string]*models.Match) []int {
	seeds := make([]int, tpl.SeedCount)
	for _, tm := range tpl.Matches {
		m, ok := matches[tm.Key]
		if !ok {
			continue
		}
		if tm.SeedA != nil && *tm.SeedA >= 1 && *tm.SeedA <= len(seeds) && m.TeamAID != nil {
			seeds[*tm.SeedA-1] = *m.TeamAID
		}
		if tm.SeedB != nil && *tm.SeedB >= 1 && *tm.SeedB <= len(seeds) && m.TeamBID != nil {
			seeds[*tm.SeedB-1] = *m.TeamBID
		}
	}
	return seeds
}
