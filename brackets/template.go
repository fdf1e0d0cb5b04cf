package brackets

import (
	"fmt"

	"github.com/beachcomp/tournament-engine/models"
)

// SourceRef points a participant or referee slot at the outcome of an earlier
// template match.
type SourceRef struct {
	MatchKey string
	Slot     models.MatchSlot
}

// RefRule is one candidate source for a match's referee: either a seed that
// is structurally idle while the match runs, or the winner/loser of an
// earlier match. When several rules are eligible at once the geographic
// tie-break in AssignReferees decides.
type RefRule struct {
	Seed   *int
	Source *SourceRef
}

// TemplateMatch is one node of a bracket template. Participant slots hold
// either a 1-based seed or a reference to an earlier match; never both.
type TemplateMatch struct {
	Key          string
	Round        int
	OrderInRound int

	SeedA *int
	SeedB *int

	SourceA *SourceRef
	SourceB *SourceRef

	RefRules []RefRule
}

// Template is a declarative bracket: adding a new bracket shape means adding
// data, not control flow.
type Template struct {
	Name      string
	SeedCount int
	Matches   []TemplateMatch
}

// Validate checks that every source reference points at a match in a strictly
// earlier round. That property is what makes a single ordered sweep
// sufficient for progression recomputation, so it is enforced at template
// registration rather than assumed.
func (t *Template) Validate() error {
	rounds := make(map[string]int, len(t.Matches))
	keys := make(map[string]bool, len(t.Matches))
	for _, m := range t.Matches {
		if keys[m.Key] {
			return fmt.Errorf("template %s: duplicate match key %s", t.Name, m.Key)
		}
		keys[m.Key] = true
		rounds[m.Key] = m.Round
	}

	checkRef := func(key string, ref *SourceRef) error {
		if ref == nil {
			return nil
		}
		srcRound, ok := rounds[ref.MatchKey]
		if !ok {
			return fmt.Errorf("template %s: match %s references unknown match %s", t.Name, key, ref.MatchKey)
		}
		if srcRound >= rounds[key] {
			return fmt.Errorf("template %s: match %s (round %d) references match %s in round %d; sources must come from earlier rounds",
				t.Name, key, rounds[key], ref.MatchKey, srcRound)
		}
		return nil
	}

	for _, m := range t.Matches {
		if m.SeedA != nil && m.SourceA != nil {
			return fmt.Errorf("template %s: match %s slot A has both a seed and a source", t.Name, m.Key)
		}
		if m.SeedB != nil && m.SourceB != nil {
			return fmt.Errorf("template %s: match %s slot B has both a seed and a source", t.Name, m.Key)
		}
		if err := checkRef(m.Key, m.SourceA); err != nil {
			return err
		}
		if err := checkRef(m.Key, m.SourceB); err != nil {
			return err
		}
		for _, r := range m.RefRules {
			if r.Source != nil {
				srcRound, ok := rounds[r.Source.MatchKey]
				if !ok {
					return fmt.Errorf("template %s: match %s referee rule references unknown match %s", t.Name, m.Key, r.Source.MatchKey)
				}
				if srcRound >= rounds[m.Key] {
					return fmt.Errorf("template %s: match %s referee rule references match %s in a later round", t.Name, m.Key, r.Source.MatchKey)
				}
			}
		}
	}
	return nil
}

func seed(n int) *int { return &n }

// FiveSeedTemplate is the fixed 5-seed single-elimination-with-byes bracket:
// round 1 pairs 4v5 and 2v3, round 2 pairs seed 1 against the 4v5 winner, and
// the final pairs the two semifinal winners. Seed 1 sits out round 1 and
// referees it; the round-1 losers are both eligible to referee the second
// semifinal, decided by distance.
var FiveSeedTemplate = Template{
	Name:      "five_seed",
	SeedCount: 5,
	Matches: []TemplateMatch{
		{
			Key: "R1M1", Round: 1, OrderInRound: 1,
			SeedA: seed(4), SeedB: seed(5),
			RefRules: []RefRule{{Seed: seed(1)}},
		},
		{
			Key: "R1M2", Round: 1, OrderInRound: 2,
			SeedA: seed(2), SeedB: seed(3),
			RefRules: []RefRule{{Seed: seed(1)}},
		},
		{
			Key: "R2M1", Round: 2, OrderInRound: 1,
			SeedA:   seed(1),
			SourceB: &SourceRef{MatchKey: "R1M1", Slot: models.SlotWinner},
			RefRules: []RefRule{
				{Source: &SourceRef{MatchKey: "R1M1", Slot: models.SlotLoser}},
				{Source: &SourceRef{MatchKey: "R1M2", Slot: models.SlotLoser}},
			},
		},
		{
			Key: "R3M1", Round: 3, OrderInRound: 1,
			SourceA:  &SourceRef{MatchKey: "R2M1", Slot: models.SlotWinner},
			SourceB:  &SourceRef{MatchKey: "R1M2", Slot: models.SlotWinner},
			RefRules: []RefRule{{Source: &SourceRef{MatchKey: "R2M1", Slot: models.SlotLoser}}},
		},
	},
}

var namedTemplates = map[string]*Template{
	FiveSeedTemplate.Name: &FiveSeedTemplate,
}

// TemplateFor returns the template for a bracket definition: a named template
// when one is requested, otherwise the generic single-elimination template
// sized to the seed count.
func TemplateFor(name string, seedCount int) (*Template, error) {
	if name != "" {
		tpl, ok := namedTemplates[name]
		if !ok {
			return nil, fmt.Errorf("unknown bracket template %q", name)
		}
		if seedCount != 0 && seedCount != tpl.SeedCount {
			return nil, fmt.Errorf("template %q is fixed at %d seeds, got %d", name, tpl.SeedCount, seedCount)
		}
		return tpl, nil
	}
	return GenerateSingleElimination(seedCount)
}
