package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
)

func (f *fixture) goldSeeds() map[string][]int {
	return map[string][]int{"gold": f.teamIDs[:5]}
}

func matchByTemplateKey(matches []*models.Match, key string) *models.Match {
	for _, m := range matches {
		if m.TemplateKey != nil && *m.TemplateKey == key {
			return m
		}
	}
	return nil
}

func TestGenerateRoundRobinStage(t *testing.T) {
	f := newFixture(t, 9)
	f.fillPools(t)
	ctx := context.Background()

	matches, err := f.generationService().GenerateStage(ctx, f.tournamentID, "pools", nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three pools of three teams: three matches each.
	if len(matches) != 9 {
		t.Fatalf("got %d matches, want 9", len(matches))
	}

	slots := make(map[string]bool)
	for _, m := range matches {
		if m.ID == 0 {
			t.Errorf("match not persisted")
		}
		if m.ScoreboardID == "" {
			t.Errorf("match %d has no scoreboard", m.ID)
		}
		if m.Status != models.MatchStatusScheduled {
			t.Errorf("match %d status = %s, want scheduled", m.ID, m.Status)
		}
		if m.Phase != models.PhasePool {
			t.Errorf("match %d phase = %s, want pool", m.ID, m.Phase)
		}
		// Three-team pools always have an idle team to referee.
		if len(m.RefereeTeamIDs) != 1 {
			t.Errorf("match %d referees = %v, want exactly one", m.ID, m.RefereeTeamIDs)
		}
		key := fmt.Sprintf("%s/%s#%d", m.Facility, m.Court, m.RoundBlock)
		if slots[key] {
			t.Errorf("slot %s double-booked", key)
		}
		slots[key] = true
		if m.RoundBlock < 1 || m.RoundBlock > 3 {
			t.Errorf("match %d block = %d, want 1..3", m.ID, m.RoundBlock)
		}
	}

	boards, _ := f.scoreboardRepo.ListIDsByTournament(ctx, f.tournamentID)
	if len(boards) != 9 {
		t.Errorf("got %d scoreboards, want 9", len(boards))
	}

	if got := f.notifier.ofType(events.EventMatchesGenerated); len(got) != 1 {
		t.Errorf("got %d generation events, want 1", len(got))
	}
}

func TestGenerateStageConflictWithoutForce(t *testing.T) {
	f := newFixture(t, 9)
	f.fillPools(t)
	ctx := context.Background()
	svc := f.generationService()
	if _, err := svc.GenerateStage(ctx, f.tournamentID, "pools", nil, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	_, err := svc.GenerateStage(ctx, f.tournamentID, "pools", nil, false)
	if !errors.Is(err, ErrStageAlreadyGenerated) {
		t.Errorf("error = %v, want ErrStageAlreadyGenerated", err)
	}
}

func TestGenerateStageForceReplacesWithoutOrphans(t *testing.T) {
	f := newFixture(t, 9)
	f.fillPools(t)
	ctx := context.Background()
	svc := f.generationService()
	if _, err := svc.GenerateStage(ctx, f.tournamentID, "pools", nil, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	matches, err := svc.GenerateStage(ctx, f.tournamentID, "pools", nil, true)
	if err != nil {
		t.Fatalf("forced regeneration: %v", err)
	}
	if len(matches) != 9 {
		t.Fatalf("got %d matches, want 9", len(matches))
	}

	count, _ := f.matchRepo.CountByTournamentStage(ctx, f.tournamentID, "pools")
	if count != 9 {
		t.Errorf("stored %d matches, want 9", count)
	}
	// Old scoreboards must be gone; exactly one per surviving match remains.
	boards, _ := f.scoreboardRepo.ListIDsByTournament(ctx, f.tournamentID)
	if len(boards) != 9 {
		t.Errorf("got %d scoreboards after force, want 9", len(boards))
	}
}

func TestGenerateStageRollsBackOnScoreboardFailure(t *testing.T) {
	f := newFixture(t, 9)
	f.fillPools(t)
	ctx := context.Background()
	f.scoreboardRepo.failAfter = 5

	_, err := f.generationService().GenerateStage(ctx, f.tournamentID, "pools", nil, false)
	if err == nil {
		t.Fatal("expected generation to fail")
	}

	count, _ := f.matchRepo.CountByTournamentStage(ctx, f.tournamentID, "pools")
	if count != 0 {
		t.Errorf("%d matches left behind, want 0", count)
	}
	boards, _ := f.scoreboardRepo.ListIDsByTournament(ctx, f.tournamentID)
	if len(boards) != 0 {
		t.Errorf("%d scoreboards left behind, want 0", len(boards))
	}
}

func TestGenerateStageIncompletePool(t *testing.T) {
	f := newFixture(t, 8)
	svc := f.poolService()
	ctx := context.Background()
	if _, err := svc.InitializePools(ctx, f.tournamentID, "pools"); err != nil {
		t.Fatalf("initialize pools: %v", err)
	}
	if _, err := svc.AutoFillSerpentine(ctx, f.tournamentID, "pools", false); err != nil {
		t.Fatalf("autofill: %v", err)
	}

	_, err := f.generationService().GenerateStage(ctx, f.tournamentID, "pools", nil, false)
	if !errors.Is(err, ErrPoolIncomplete) {
		t.Errorf("error = %v, want ErrPoolIncomplete", err)
	}
}

func TestGeneratePlayoffStage(t *testing.T) {
	f := newFixture(t, 9)
	ctx := context.Background()

	matches, err := f.generationService().GenerateStage(ctx, f.tournamentID, "playoffs", f.goldSeeds(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Five-seed bracket: 4v5, 2v3, semifinal, final.
	if len(matches) != 4 {
		t.Fatalf("got %d matches, want 4", len(matches))
	}

	seeds := f.goldSeeds()["gold"]
	r1m1 := matchByTemplateKey(matches, "R1M1")
	if r1m1 == nil {
		t.Fatal("R1M1 missing")
	}
	if *r1m1.TeamAID != seeds[3] || *r1m1.TeamBID != seeds[4] {
		t.Errorf("R1M1 pairs %d v %d, want seeds 4 and 5", *r1m1.TeamAID, *r1m1.TeamBID)
	}
	if len(r1m1.RefereeTeamIDs) != 1 || r1m1.RefereeTeamIDs[0] != seeds[0] {
		t.Errorf("R1M1 referees = %v, want seed 1", r1m1.RefereeTeamIDs)
	}

	semi := matchByTemplateKey(matches, "R2M1")
	if semi == nil {
		t.Fatal("R2M1 missing")
	}
	if semi.TeamAID == nil || *semi.TeamAID != seeds[0] {
		t.Errorf("semifinal slot A = %v, want seed 1", semi.TeamAID)
	}
	if semi.TeamBFromMatchID == nil || *semi.TeamBFromMatchID != r1m1.ID {
		t.Errorf("semifinal slot B sourced from match %v, want %d", semi.TeamBFromMatchID, r1m1.ID)
	}
	if semi.TeamBID != nil {
		t.Errorf("semifinal slot B resolved before any result")
	}

	final := matchByTemplateKey(matches, "R3M1")
	if final == nil {
		t.Fatal("R3M1 missing")
	}
	if final.TeamAFromMatchID == nil || *final.TeamAFromMatchID != semi.ID {
		t.Errorf("final slot A sourced from match %v, want %d", final.TeamAFromMatchID, semi.ID)
	}

	// Dependent matches never share a block with their source.
	r1m2 := matchByTemplateKey(matches, "R1M2")
	if semi.RoundBlock <= r1m1.RoundBlock || semi.RoundBlock <= r1m2.RoundBlock {
		t.Errorf("semifinal block %d not after round 1 blocks %d, %d",
			semi.RoundBlock, r1m1.RoundBlock, r1m2.RoundBlock)
	}
	if final.RoundBlock <= semi.RoundBlock {
		t.Errorf("final block %d not after semifinal block %d", final.RoundBlock, semi.RoundBlock)
	}

	// Unresolved sides appear as TBD on the scoring device.
	sb, err := f.scoreboardRepo.GetByID(ctx, final.ScoreboardID)
	if err != nil {
		t.Fatalf("final scoreboard: %v", err)
	}
	if sb.NameA != "TBD" || sb.NameB != "TBD" {
		t.Errorf("final scoreboard names %q/%q, want TBD/TBD", sb.NameA, sb.NameB)
	}
}

func TestGeneratePlayoffDependencyIDsAreCopies(t *testing.T) {
	f := newFixture(t, 9)
	ctx := context.Background()

	matches, err := f.generationService().GenerateStage(ctx, f.tournamentID, "playoffs", f.goldSeeds(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	checked := 0
	for _, m := range matches {
		for _, dep := range []*int{m.TeamAFromMatchID, m.TeamBFromMatchID} {
			if dep == nil {
				continue
			}
			src, ok := byID[*dep]
			if !ok {
				t.Errorf("match %d depends on unknown match id %d", m.ID, *dep)
				continue
			}
			// A later renumber of the source must not silently retarget
			// the stored dependency.
			if dep == &src.ID {
				t.Errorf("match %d dependency shares storage with match %d's id", m.ID, src.ID)
			}
			checked++
		}
	}
	// Semifinal slot B plus both final slots.
	if checked != 3 {
		t.Errorf("checked %d dependency slots, want 3", checked)
	}
}

func TestGeneratePlayoffAfterPoolsStartsLater(t *testing.T) {
	f := newFixture(t, 9)
	f.fillPools(t)
	ctx := context.Background()
	svc := f.generationService()
	poolMatches, err := svc.GenerateStage(ctx, f.tournamentID, "pools", nil, false)
	if err != nil {
		t.Fatalf("generate pools: %v", err)
	}
	maxPoolBlock := 0
	for _, m := range poolMatches {
		if m.RoundBlock > maxPoolBlock {
			maxPoolBlock = m.RoundBlock
		}
	}

	playoffMatches, err := svc.GenerateStage(ctx, f.tournamentID, "playoffs", f.goldSeeds(), false)
	if err != nil {
		t.Fatalf("generate playoffs: %v", err)
	}
	for _, m := range playoffMatches {
		if m.RoundBlock <= maxPoolBlock {
			t.Errorf("playoff match %d in block %d, want after pool block %d", m.ID, m.RoundBlock, maxPoolBlock)
		}
	}
}

func TestGeneratePlayoffSeedValidation(t *testing.T) {
	f := newFixture(t, 9)
	ctx := context.Background()
	svc := f.generationService()

	_, err := svc.GenerateStage(ctx, f.tournamentID, "playoffs", map[string][]int{"gold": f.teamIDs[:3]}, false)
	if !errors.Is(err, ErrSeedCountMismatch) {
		t.Errorf("short seed list error = %v, want ErrSeedCountMismatch", err)
	}

	_, err = svc.GenerateStage(ctx, f.tournamentID, "playoffs", nil, false)
	if !errors.Is(err, ErrSeedCountMismatch) {
		t.Errorf("missing seed list error = %v, want ErrSeedCountMismatch", err)
	}

	bad := map[string][]int{"gold": {f.teamIDs[0], f.teamIDs[1], f.teamIDs[2], f.teamIDs[3], 999}}
	_, err = svc.GenerateStage(ctx, f.tournamentID, "playoffs", bad, false)
	if !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("unknown team error = %v, want ErrUnknownTeam", err)
	}
}

func TestGenerateStageUnknownTournament(t *testing.T) {
	f := newFixture(t, 9)

	_, err := f.generationService().GenerateStage(context.Background(), 999, "pools", nil, false)
	if !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("error = %v, want ErrTournamentNotFound", err)
	}
}
