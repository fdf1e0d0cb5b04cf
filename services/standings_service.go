package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

// StandingsService derives rankings from the current set of finalized
// matches. Nothing is persisted except manual overrides; every read
// recomputes from scratch so standings can never drift from results.
type StandingsService struct {
	matchRepo    repositories.MatchRepository
	poolRepo     repositories.PoolRepository
	teamRepo     repositories.TeamRepository
	overrideRepo repositories.OverrideRepository
	notifier     Notifier
}

func NewStandingsService(
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	teamRepo repositories.TeamRepository,
	overrideRepo repositories.OverrideRepository,
	notifier Notifier,
) *StandingsService {
	return &StandingsService{
		matchRepo:    matchRepo,
		poolRepo:     poolRepo,
		teamRepo:     teamRepo,
		overrideRepo: overrideRepo,
		notifier:     notifier,
	}
}

// PoolScope builds the scope value addressing one pool's standings.
func PoolScope(poolName string) string {
	return "pool:" + poolName
}

// Compute aggregates finalized matches into a ranked table. stageKey empty
// means cumulative across every stage; scope is "overall" or "pool:<name>".
// Order: wins desc, set percentage desc, point differential desc, team id asc,
// unless a stored override replaces the whole order.
func (s *StandingsService) Compute(ctx context.Context, tournamentID int, stageKey, scope string) ([]models.StandingsEntry, error) {
	if scope == "" {
		scope = models.OverrideScopeOverall
	}

	teamSet, matches, err := s.scopeData(ctx, tournamentID, stageKey, scope)
	if err != nil {
		return nil, err
	}

	stats := make(map[int]*models.StandingsEntry, len(teamSet))
	for id := range teamSet {
		stats[id] = &models.StandingsEntry{TeamID: id}
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusFinal || m.Result == nil {
			continue
		}
		r := m.Result
		applySide(stats, deref(m.TeamAID), r.WinnerTeamID, r.SetsA, r.SetsB, r.PointsA, r.PointsB)
		applySide(stats, deref(m.TeamBID), r.WinnerTeamID, r.SetsB, r.SetsA, r.PointsB, r.PointsA)
	}

	entries := make([]models.StandingsEntry, 0, len(stats))
	for _, e := range stats {
		if played := e.SetsWon + e.SetsLost; played > 0 {
			e.SetPct = float64(e.SetsWon) / float64(played)
		}
		e.PointDiff = e.PointsFor - e.PointsAgainst
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.SetPct != b.SetPct {
			return a.SetPct > b.SetPct
		}
		if a.PointDiff != b.PointDiff {
			return a.PointDiff > b.PointDiff
		}
		return a.TeamID < b.TeamID
	})

	entries = s.applyOverride(ctx, tournamentID, stageKey, scope, entries)

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Team = byID[entries[i].TeamID]
	}
	return entries, nil
}

// SetOverride stores a manual ranking for one scope. The supplied order must
// be an exact permutation of the scope's team set.
func (s *StandingsService) SetOverride(ctx context.Context, tournamentID int, stageKey, scope string, teamIDs []int) error {
	if scope == "" {
		scope = models.OverrideScopeOverall
	}
	teamSet, _, err := s.scopeData(ctx, tournamentID, stageKey, scope)
	if err != nil {
		return err
	}
	if !isPermutation(teamIDs, teamSet) {
		return fmt.Errorf("%w: scope %s has %d teams", ErrOverrideNotPermutation, scope, len(teamSet))
	}

	override := &models.RankingOverride{
		TournamentID: tournamentID,
		StageKey:     stageKey,
		Scope:        scope,
		TeamIDs:      teamIDs,
	}
	if err := s.overrideRepo.Upsert(ctx, override); err != nil {
		return err
	}

	notify(s.notifier, tournamentID, events.EventStandingsOverrideSet, map[string]interface{}{
		"stage_key": stageKey,
		"scope":     scope,
		"team_ids":  teamIDs,
	})
	return nil
}

// ClearOverride removes a manual ranking, restoring the computed order.
func (s *StandingsService) ClearOverride(ctx context.Context, tournamentID int, stageKey, scope string) error {
	if scope == "" {
		scope = models.OverrideScopeOverall
	}
	if err := s.overrideRepo.Delete(ctx, tournamentID, stageKey, scope); err != nil {
		if errors.Is(err, repositories.ErrOverrideNotFound) {
			return nil
		}
		return err
	}
	notify(s.notifier, tournamentID, events.EventStandingsOverrideSet, map[string]interface{}{
		"stage_key": stageKey,
		"scope":     scope,
		"team_ids":  nil,
	})
	return nil
}

// scopeData resolves the team set and candidate matches for a scope: a pool's
// roster and its matches, a stage's combined rosters (or match participants
// for playoff stages) and its matches, or the whole tournament.
func (s *StandingsService) scopeData(ctx context.Context, tournamentID int, stageKey, scope string) (map[int]bool, []*models.Match, error) {
	teamSet := make(map[int]bool)
	filter := repositories.MatchFilter{}
	status := models.MatchStatusFinal
	filter.Status = &status

	switch {
	case strings.HasPrefix(scope, "pool:"):
		if stageKey == "" {
			return nil, nil, fmt.Errorf("%w: pool scope requires a stage", ErrValidationFailed)
		}
		poolName := strings.TrimPrefix(scope, "pool:")
		pool, err := s.findPool(ctx, tournamentID, stageKey, poolName)
		if err != nil {
			return nil, nil, err
		}
		for _, id := range pool.TeamIDs {
			teamSet[id] = true
		}
		filter.StageKey = &stageKey
		filter.PoolID = &pool.ID

	case stageKey != "":
		pools, err := s.poolRepo.ListByTournament(ctx, tournamentID, &stageKey)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range pools {
			for _, id := range p.TeamIDs {
				teamSet[id] = true
			}
		}
		filter.StageKey = &stageKey

	default:
		teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range teams {
			teamSet[t.ID] = true
		}
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return nil, nil, err
	}

	// A playoff stage has no pools; its team set is whoever appears in its
	// matches.
	if len(teamSet) == 0 && stageKey != "" {
		for _, m := range matches {
			if m.TeamAID != nil {
				teamSet[*m.TeamAID] = true
			}
			if m.TeamBID != nil {
				teamSet[*m.TeamBID] = true
			}
		}
	}
	return teamSet, matches, nil
}

func (s *StandingsService) findPool(ctx context.Context, tournamentID int, stageKey, poolName string) (*models.Pool, error) {
	pools, err := s.poolRepo.ListByTournament(ctx, tournamentID, &stageKey)
	if err != nil {
		return nil, err
	}
	for _, p := range pools {
		if p.Name == poolName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in stage %s", ErrPoolNotFound, poolName, stageKey)
}

// applyOverride reorders entries by a stored override when one exists and is
// still a permutation of the computed set; an override invalidated by roster
// changes is ignored rather than surfaced as an error on read.
func (s *StandingsService) applyOverride(ctx context.Context, tournamentID int, stageKey, scope string, entries []models.StandingsEntry) []models.StandingsEntry {
	override, err := s.overrideRepo.Get(ctx, tournamentID, stageKey, scope)
	if err != nil {
		return entries
	}

	byTeam := make(map[int]models.StandingsEntry, len(entries))
	for _, e := range entries {
		byTeam[e.TeamID] = e
	}
	teamSet := make(map[int]bool, len(entries))
	for id := range byTeam {
		teamSet[id] = true
	}
	if !isPermutation(override.TeamIDs, teamSet) {
		return entries
	}

	ordered := make([]models.StandingsEntry, 0, len(entries))
	for _, id := range override.TeamIDs {
		ordered = append(ordered, byTeam[id])
	}
	return ordered
}

func applySide(stats map[int]*models.StandingsEntry, teamID, winnerID, setsFor, setsAgainst, pointsFor, pointsAgainst int) {
	e, ok := stats[teamID]
	if !ok {
		return
	}
	e.Played++
	if teamID == winnerID {
		e.Wins++
	} else {
		e.Losses++
	}
	e.SetsWon += setsFor
	e.SetsLost += setsAgainst
	e.PointsFor += pointsFor
	e.PointsAgainst += pointsAgainst
}

// isPermutation checks candidate is exactly the set's elements, each once.
func isPermutation(candidate []int, set map[int]bool) bool {
	if len(candidate) != len(set) {
		return false
	}
	seen := make(map[int]bool, len(candidate))
	for _, id := range candidate {
		if !set[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
