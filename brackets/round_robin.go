package brackets

import (
	"fmt"
	"sort"
)

// Pairing is one round-robin match inside a pool: two team ids and the team
// refereeing it. RefereeTeamID is nil when the pool has only two teams.
type Pairing struct {
	TeamAID       int
	TeamBID       int
	RefereeTeamID *int
}

// RoundRobinPairings produces every unique unordered pairing of teamIDs, in
// canonical order (earlier teams first), with a referee drawn from the teams
// not playing. For n teams this is always n*(n-1)/2 pairings; for n == 3 each
// team referees exactly once.
func RoundRobinPairings(teamIDs []int) ([]Pairing, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, fmt.Errorf("round robin requires at least 2 teams, got %d", n)
	}

	pairings := make([]Pairing, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairings = append(pairings, Pairing{TeamAID: teamIDs[i], TeamBID: teamIDs[j]})
		}
	}

	assignReferees(teamIDs, pairings)
	return pairings, nil
}

// assignReferees rotates the non-playing teams over the pairings so referee
// duty stays balanced. With 3 teams the idle team is forced, which yields the
// classic rotation: A-B ref C, A-C ref B, B-C ref A.
func assignReferees(teamIDs []int, pairings []Pairing) {
	if len(teamIDs) < 3 {
		return
	}

	// Idle appearances left per team, counting the current pairing. A team
	// whose idle pairings run out early must take its duty while it can.
	idleLeft := make(map[int]int, len(teamIDs))
	for _, p := range pairings {
		for _, id := range teamIDs {
			if id != p.TeamAID && id != p.TeamBID {
				idleLeft[id]++
			}
		}
	}

	duty := make(map[int]int, len(teamIDs))
	for i := range pairings {
		p := &pairings[i]
		idle := make([]int, 0, len(teamIDs)-2)
		for _, id := range teamIDs {
			if id != p.TeamAID && id != p.TeamBID {
				idle = append(idle, id)
			}
		}
		// Least-burdened idle team next; ties go to the team with the
		// fewest idle pairings left, stable by roster order.
		sort.SliceStable(idle, func(a, b int) bool {
			if duty[idle[a]] != duty[idle[b]] {
				return duty[idle[a]] < duty[idle[b]]
			}
			return idleLeft[idle[a]] < idleLeft[idle[b]]
		})
		ref := idle[0]
		duty[ref]++
		p.RefereeTeamID = &ref
		for _, id := range idle {
			idleLeft[id]--
		}
	}
}
