package brackets

import (
	"testing"

	"github.com/beachcomp/tournament-engine/models"
)

func floatp(v float64) *float64 { return &v }

// fiveSeedBracket returns the five-seed bracket mid-tournament: both round-1
// matches decided, the second semifinal about to start on main/1.
func fiveSeedBracket() map[string]*models.Match {
	return map[string]*models.Match{
		"R1M1": {ID: 1, BracketRound: intp(1), Facility: "main", Court: "1",
			Status: models.MatchStatusFinal,
			TeamAID: intp(40), TeamBID: intp(50), Result: result(40, 50)},
		"R1M2": {ID: 2, BracketRound: intp(1), Facility: "main", Court: "2",
			Status: models.MatchStatusFinal,
			TeamAID: intp(20), TeamBID: intp(30), Result: result(20, 30)},
		"R2M1": {ID: 3, BracketRound: intp(2), Facility: "main", Court: "1",
			Status: models.MatchStatusScheduled,
			TeamAID: intp(10), TeamBID: intp(40)},
		"R3M1": {ID: 4, BracketRound: intp(3), Facility: "main", Court: "1",
			Status: models.MatchStatusScheduled},
	}
}

func fiveSeedCourts() map[string]models.Court {
	return map[string]models.Court{
		"main/1": {Facility: "main", Name: "1", Lat: 52.37, Lon: 4.89},
		"main/2": {Facility: "main", Name: "2", Lat: 52.37, Lon: 4.90},
	}
}

func TestAssignRefereesGeoTieBreak(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := []int{10, 20, 30, 40, 50}
	// Team 50 trains next to the court, team 30 is across the country.
	teams := map[int]*models.Team{
		30: {ID: 30, Lat: floatp(48.85), Lon: floatp(2.35)},
		50: {ID: 50, Lat: floatp(52.38), Lon: floatp(4.88)},
	}

	changed := AssignReferees(&FiveSeedTemplate, matches, seeds, teams, fiveSeedCourts())

	semi := matches["R2M1"]
	if len(semi.RefereeTeamIDs) != 1 || semi.RefereeTeamIDs[0] != 50 {
		t.Errorf("semifinal referees = %v, want [50]", semi.RefereeTeamIDs)
	}

	// Seed 1 is idle in round 1 and referees both of its matches.
	for _, key := range []string{"R1M1", "R1M2"} {
		m := matches[key]
		if len(m.RefereeTeamIDs) != 1 || m.RefereeTeamIDs[0] != 10 {
			t.Errorf("%s referees = %v, want [10]", key, m.RefereeTeamIDs)
		}
	}

	// The final's referee depends on the undecided semifinal.
	if len(matches["R3M1"].RefereeTeamIDs) != 0 {
		t.Errorf("final referees = %v, want none yet", matches["R3M1"].RefereeTeamIDs)
	}

	if len(changed) != 3 {
		t.Errorf("%d matches changed, want 3", len(changed))
	}
}

func TestAssignRefereesGeoTieBreakFlipped(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := []int{10, 20, 30, 40, 50}
	teams := map[int]*models.Team{
		30: {ID: 30, Lat: floatp(52.38), Lon: floatp(4.88)},
		50: {ID: 50, Lat: floatp(48.85), Lon: floatp(2.35)},
	}

	AssignReferees(&FiveSeedTemplate, matches, seeds, teams, fiveSeedCourts())

	semi := matches["R2M1"]
	if len(semi.RefereeTeamIDs) != 1 || semi.RefereeTeamIDs[0] != 30 {
		t.Errorf("semifinal referees = %v, want [30]", semi.RefereeTeamIDs)
	}
}

func TestAssignRefereesNoLocationSortsLast(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := []int{10, 20, 30, 40, 50}
	// Team 50 has no location on file; any located candidate beats it.
	teams := map[int]*models.Team{
		30: {ID: 30, Lat: floatp(48.85), Lon: floatp(2.35)},
		50: {ID: 50},
	}

	AssignReferees(&FiveSeedTemplate, matches, seeds, teams, fiveSeedCourts())

	semi := matches["R2M1"]
	if len(semi.RefereeTeamIDs) != 1 || semi.RefereeTeamIDs[0] != 30 {
		t.Errorf("semifinal referees = %v, want [30]", semi.RefereeTeamIDs)
	}
}

func TestAssignRefereesDistanceTieBreaksOnTeamID(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := []int{10, 20, 30, 40, 50}
	teams := map[int]*models.Team{
		30: {ID: 30},
		50: {ID: 50},
	}

	AssignReferees(&FiveSeedTemplate, matches, seeds, teams, fiveSeedCourts())

	semi := matches["R2M1"]
	if len(semi.RefereeTeamIDs) != 1 || semi.RefereeTeamIDs[0] != 30 {
		t.Errorf("semifinal referees = %v, want [30] (lower team id)", semi.RefereeTeamIDs)
	}
}

func TestAssignRefereesSkipsTeamPlayingInSameRound(t *testing.T) {
	tpl := Template{
		Name:      "pair",
		SeedCount: 4,
		Matches: []TemplateMatch{
			{Key: "R1M1", Round: 1, SeedA: seed(1), SeedB: seed(2)},
			{Key: "R1M2", Round: 1, SeedA: seed(3), SeedB: seed(4),
				RefRules: []RefRule{{Seed: seed(1)}}},
		},
	}
	matches := map[string]*models.Match{
		"R1M1": {ID: 1, BracketRound: intp(1), Facility: "main", Court: "1",
			TeamAID: intp(10), TeamBID: intp(20)},
		"R1M2": {ID: 2, BracketRound: intp(1), Facility: "main", Court: "2",
			TeamAID: intp(30), TeamBID: intp(40)},
	}

	changed := AssignReferees(&tpl, matches, []int{10, 20, 30, 40}, nil, fiveSeedCourts())

	if len(changed) != 0 {
		t.Fatalf("%d matches changed, want 0", len(changed))
	}
	if len(matches["R1M2"].RefereeTeamIDs) != 0 {
		t.Errorf("referee assigned to a team playing the same round: %v", matches["R1M2"].RefereeTeamIDs)
	}
}

func TestAssignRefereesIdempotent(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := []int{10, 20, 30, 40, 50}
	teams := map[int]*models.Team{
		30: {ID: 30, Lat: floatp(48.85), Lon: floatp(2.35)},
		50: {ID: 50, Lat: floatp(52.38), Lon: floatp(4.88)},
	}
	courts := fiveSeedCourts()

	AssignReferees(&FiveSeedTemplate, matches, seeds, teams, courts)
	changed := AssignReferees(&FiveSeedTemplate, matches, seeds, teams, courts)

	if len(changed) != 0 {
		t.Errorf("second pass changed %d matches, want 0", len(changed))
	}
}

func TestSeedsFromMatches(t *testing.T) {
	matches := fiveSeedBracket()
	seeds := SeedsFromMatches(&FiveSeedTemplate, matches)

	want := []int{10, 20, 30, 40, 50}
	if len(seeds) != len(want) {
		t.Fatalf("got %d seeds, want %d", len(seeds), len(want))
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seed %d = %d, want %d", i+1, seeds[i], want[i])
		}
	}
}

func TestSeedsFromMatchesUnknownStaysZero(t *testing.T) {
	matches := fiveSeedBracket()
	delete(matches, "R2M1")

	seeds := SeedsFromMatches(&FiveSeedTemplate, matches)

	// Seed 1 only appears in the missing semifinal, so it stays unknown.
	if seeds[0] != 0 {
		t.Errorf("seed 1 = %d, want 0", seeds[0])
	}
	if seeds[3] != 40 || seeds[4] != 50 {
		t.Errorf("seeds 4,5 = %d,%d, want 40,50", seeds[3], seeds[4])
	}
}
