package brackets

import (
	"testing"

	"github.com/beachcomp/tournament-engine/models"
)

func TestFiveSeedTemplateShape(t *testing.T) {
	tpl := FiveSeedTemplate
	if err := tpl.Validate(); err != nil {
		t.Fatalf("template invalid: %v", err)
	}
	if tpl.SeedCount != 5 {
		t.Fatalf("seed count = %d, want 5", tpl.SeedCount)
	}

	byKey := make(map[string]TemplateMatch)
	for _, m := range tpl.Matches {
		byKey[m.Key] = m
	}

	r1m1 := byKey["R1M1"]
	if *r1m1.SeedA != 4 || *r1m1.SeedB != 5 {
		t.Errorf("R1M1 pairs %dv%d, want 4v5", *r1m1.SeedA, *r1m1.SeedB)
	}
	r1m2 := byKey["R1M2"]
	if *r1m2.SeedA != 2 || *r1m2.SeedB != 3 {
		t.Errorf("R1M2 pairs %dv%d, want 2v3", *r1m2.SeedA, *r1m2.SeedB)
	}

	// Seed 1 sits out round 1 and referees both matches.
	for _, key := range []string{"R1M1", "R1M2"} {
		rules := byKey[key].RefRules
		if len(rules) != 1 || rules[0].Seed == nil || *rules[0].Seed != 1 {
			t.Errorf("%s referee rules should name seed 1", key)
		}
	}

	r2m1 := byKey["R2M1"]
	if *r2m1.SeedA != 1 {
		t.Errorf("R2M1 slot A = seed %d, want 1", *r2m1.SeedA)
	}
	if r2m1.SourceB.MatchKey != "R1M1" || r2m1.SourceB.Slot != models.SlotWinner {
		t.Errorf("R2M1 slot B should take the R1M1 winner")
	}
	if len(r2m1.RefRules) != 2 {
		t.Errorf("R2M1 should have two referee candidates (both round-1 losers)")
	}

	final := byKey["R3M1"]
	if final.SourceA.MatchKey != "R2M1" || final.SourceB.MatchKey != "R1M2" {
		t.Errorf("final should pair the two semifinal winners")
	}
	if final.SourceA.Slot != models.SlotWinner || final.SourceB.Slot != models.SlotWinner {
		t.Errorf("final slots should both take winners")
	}
}

func TestTemplateValidateRejectsForwardReference(t *testing.T) {
	tpl := Template{
		Name:      "bad",
		SeedCount: 4,
		Matches: []TemplateMatch{
			{Key: "R1M1", Round: 1, SeedA: seed(1), SourceB: &SourceRef{MatchKey: "R2M1", Slot: models.SlotWinner}},
			{Key: "R2M1", Round: 2, SeedA: seed(2), SeedB: seed(3)},
		},
	}
	if err := tpl.Validate(); err == nil {
		t.Fatal("expected validation error for forward reference")
	}
}

func TestTemplateValidateRejectsSeedAndSource(t *testing.T) {
	tpl := Template{
		Name:      "bad",
		SeedCount: 3,
		Matches: []TemplateMatch{
			{Key: "R1M1", Round: 1, SeedA: seed(1), SeedB: seed(2)},
			{Key: "R2M1", Round: 2, SeedA: seed(3),
				SeedB: seed(1), SourceB: &SourceRef{MatchKey: "R1M1", Slot: models.SlotWinner}},
		},
	}
	if err := tpl.Validate(); err == nil {
		t.Fatal("expected validation error for slot with both seed and source")
	}
}

func TestTemplateForNamed(t *testing.T) {
	tpl, err := TemplateFor("five_seed", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "five_seed" {
		t.Errorf("got template %s", tpl.Name)
	}

	if _, err := TemplateFor("five_seed", 8); err == nil {
		t.Error("expected error for wrong seed count on fixed template")
	}
	if _, err := TemplateFor("no_such_template", 4); err == nil {
		t.Error("expected error for unknown template name")
	}
}

func TestGenerateSingleElimination(t *testing.T) {
	tests := []struct {
		seedCount   int
		wantMatches int
	}{
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 4},
		{8, 7},
		{16, 15},
	}
	for _, tt := range tests {
		tpl, err := GenerateSingleElimination(tt.seedCount)
		if err != nil {
			t.Fatalf("seedCount=%d: %v", tt.seedCount, err)
		}
		// Single elimination always plays n-1 matches.
		if len(tpl.Matches) != tt.wantMatches {
			t.Errorf("seedCount=%d: %d matches, want %d", tt.seedCount, len(tpl.Matches), tt.wantMatches)
		}
		if err := tpl.Validate(); err != nil {
			t.Errorf("seedCount=%d: generated template invalid: %v", tt.seedCount, err)
		}
	}
}

func TestGenerateSingleEliminationTooSmall(t *testing.T) {
	if _, err := GenerateSingleElimination(1); err == nil {
		t.Fatal("expected error for a single seed")
	}
}

func TestGenerateSingleEliminationFourSeeds(t *testing.T) {
	tpl, err := GenerateSingleElimination(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byKey := make(map[string]TemplateMatch)
	for _, m := range tpl.Matches {
		byKey[m.Key] = m
	}

	// Standard seeding: 1v4 and 2v3 in round 1, winners meet in the final.
	r1m1 := byKey["R1M1"]
	if *r1m1.SeedA != 1 || *r1m1.SeedB != 4 {
		t.Errorf("R1M1 pairs %dv%d, want 1v4", *r1m1.SeedA, *r1m1.SeedB)
	}
	r1m2 := byKey["R1M2"]
	if *r1m2.SeedA != 2 || *r1m2.SeedB != 3 {
		t.Errorf("R1M2 pairs %dv%d, want 2v3", *r1m2.SeedA, *r1m2.SeedB)
	}
	final := byKey["R2M1"]
	if final.SourceA == nil || final.SourceB == nil {
		t.Fatal("final should take both slots from round 1")
	}
	if final.SourceA.MatchKey != "R1M1" || final.SourceB.MatchKey != "R1M2" {
		t.Errorf("final sources = %s, %s", final.SourceA.MatchKey, final.SourceB.MatchKey)
	}
}

func TestGenerateSingleEliminationFiveSeedByes(t *testing.T) {
	tpl, err := GenerateSingleElimination(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Bracket of 8 with seeds 6..8 missing: only 4v5 actually plays round 1,
	// seeds 1..3 advance on byes.
	round1 := 0
	for _, m := range tpl.Matches {
		if m.Round == 1 {
			round1++
			if *m.SeedA != 4 || *m.SeedB != 5 {
				t.Errorf("round 1 pairs %dv%d, want 4v5", *m.SeedA, *m.SeedB)
			}
		}
	}
	if round1 != 1 {
		t.Errorf("round 1 has %d matches, want 1", round1)
	}
}
