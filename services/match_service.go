package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beachcomp/tournament-engine/brackets"
	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

// MatchService drives the match lifecycle: scheduled → live → ended → final,
// with final reachable only through Finalize and left only through
// Unfinalize. Both trigger bracket recomputation so downstream participant
// slots always reflect the current set of finalized results.
type MatchService struct {
	matchRepo      repositories.MatchRepository
	scoreboardRepo repositories.ScoreboardRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	notifier       Notifier
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	scoreboardRepo repositories.ScoreboardRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	notifier Notifier,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		matchRepo:      matchRepo,
		scoreboardRepo: scoreboardRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *MatchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return match, nil
}

func (s *MatchService) ListByTournament(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID, filter)
}

// UpdateStatus sets the informational part of the lifecycle. scheduled, live
// and ended are freely assignable; final is not reachable here, and a match
// holding a result cannot move at all until it is unfinalized.
func (s *MatchService) UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) (*models.Match, error) {
	switch status {
	case models.MatchStatusScheduled, models.MatchStatusLive, models.MatchStatusEnded:
	case models.MatchStatusFinal:
		return nil, ErrStatusFinalViaEndpoint
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, status)
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if match.Result != nil {
		return nil, ErrStatusLockedByResult
	}
	if match.Status == status {
		return match, nil
	}

	match.Status = status
	if err := s.matchRepo.UpdateStatusResult(ctx, match); err != nil {
		return nil, translateRepoError(err)
	}

	notify(s.notifier, match.TournamentID, events.EventMatchStatusUpdated, map[string]interface{}{
		"match_id": match.ID,
		"status":   match.Status,
	})
	return match, nil
}

// Finalize snapshots the scoring device's terminal state into an immutable
// result and freezes the match. The device state must be decisive: at least
// one completed set, no tied sets, and an unequal set count. Playoff matches
// then propagate through their bracket.
func (s *MatchService) Finalize(ctx context.Context, matchID int, finalizedBy string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if match.Status == models.MatchStatusFinal {
		return nil, ErrMatchAlreadyFinal
	}
	if match.Status != models.MatchStatusEnded {
		return nil, fmt.Errorf("%w: status is %s", ErrMatchNotEnded, match.Status)
	}
	if !match.ParticipantsResolved() {
		return nil, ErrParticipantsUnresolved
	}

	scoreboard, err := s.scoreboardRepo.GetByID(ctx, match.ScoreboardID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	result, err := resultFromScoreboard(scoreboard, *match.TeamAID, *match.TeamBID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	match.Result = result
	match.Status = models.MatchStatusFinal
	match.FinalizedAt = &now
	if finalizedBy != "" {
		match.FinalizedBy = &finalizedBy
	}
	if err := s.matchRepo.UpdateStatusResult(ctx, match); err != nil {
		return nil, translateRepoError(err)
	}

	notify(s.notifier, match.TournamentID, events.EventMatchFinalized, map[string]interface{}{
		"match_id":       match.ID,
		"winner_team_id": result.WinnerTeamID,
	})

	if match.Phase == models.PhasePlayoff {
		if _, err := s.RecomputeBrackets(ctx, match.TournamentID, match.BracketID); err != nil {
			return nil, err
		}
	}
	return match, nil
}

// Unfinalize discards the result snapshot and reverts the match to ended. The
// scoring device keeps its state, so re-finalizing without rescoring yields
// the same result.
func (s *MatchService) Unfinalize(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if match.Status != models.MatchStatusFinal {
		return nil, ErrMatchNotFinal
	}

	match.Result = nil
	match.Status = models.MatchStatusEnded
	match.FinalizedAt = nil
	match.FinalizedBy = nil
	if err := s.matchRepo.UpdateStatusResult(ctx, match); err != nil {
		return nil, translateRepoError(err)
	}

	notify(s.notifier, match.TournamentID, events.EventMatchUnfinalized, map[string]interface{}{
		"match_id": match.ID,
	})

	if match.Phase == models.PhasePlayoff {
		if _, err := s.RecomputeBrackets(ctx, match.TournamentID, match.BracketID); err != nil {
			return nil, err
		}
	}
	return match, nil
}

// RecomputeBrackets re-resolves every dependent participant slot from the
// current finalized results. bracketID nil recomputes every bracket of the
// tournament, the path for data predating per-bracket scoping. Safe to re-run:
// with no new results the diff is empty and nothing is written.
func (s *MatchService) RecomputeBrackets(ctx context.Context, tournamentID int, bracketID *string) (brackets.Diff, error) {
	phase := models.PhasePlayoff
	filter := repositories.MatchFilter{Phase: &phase, BracketID: bracketID}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return brackets.Diff{}, err
	}
	if len(matches) == 0 {
		return brackets.Diff{}, nil
	}

	diff := brackets.Recompute(matches)

	for _, m := range diff.Updated {
		if err := s.matchRepo.UpdateParticipants(ctx, m); err != nil {
			return diff, translateRepoError(err)
		}
	}

	teams, err := s.teamsByID(ctx, tournamentID)
	if err != nil {
		return diff, err
	}

	byMatchID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		byMatchID[m.ID] = m
	}
	for _, id := range diff.ParticipantChangedIDs {
		if err := s.syncScoreboard(ctx, byMatchID[id], teams); err != nil {
			return diff, err
		}
	}

	if err := s.reassignReferees(ctx, tournamentID, matches, teams); err != nil {
		return diff, err
	}

	if !diff.Empty() {
		notify(s.notifier, tournamentID, events.EventPlayoffsBracketUpdated, map[string]interface{}{
			"updated_match_ids": matchIDs(diff.Updated),
			"cleared_match_ids": diff.ClearedIDs,
		})
	}
	return diff, nil
}

// syncScoreboard renames the scoring device's sides after a participant
// change and wipes its running score so a stale matchup's points are never
// shown under new names.
func (s *MatchService) syncScoreboard(ctx context.Context, match *models.Match, teams map[int]*models.Team) error {
	if match == nil || match.ScoreboardID == "" {
		return nil
	}
	scoreboard, err := s.scoreboardRepo.GetByID(ctx, match.ScoreboardID)
	if err != nil {
		return translateRepoError(err)
	}
	scoreboard.NameA = sideName(teams, match.TeamAID)
	scoreboard.NameB = sideName(teams, match.TeamBID)
	scoreboard.Reset()
	return s.scoreboardRepo.Update(ctx, scoreboard)
}

// reassignReferees re-runs each bracket's declarative referee rule table
// against the current results and persists any change.
func (s *MatchService) reassignReferees(ctx context.Context, tournamentID int, matches []*models.Match, teams map[int]*models.Team) error {
	byBracket := make(map[string][]*models.Match)
	for _, m := range matches {
		if m.BracketID == nil {
			continue
		}
		byBracket[*m.BracketID] = append(byBracket[*m.BracketID], m)
	}
	if len(byBracket) == 0 {
		return nil
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return translateRepoError(err)
	}
	format, err := s.formatRepo.GetByID(ctx, tournament.FormatID)
	if err != nil {
		return translateRepoError(err)
	}
	settings, err := format.Settings()
	if err != nil {
		return err
	}

	for bracketID, bracketMatches := range byBracket {
		stage := settings.Stage(bracketMatches[0].StageKey)
		if stage == nil {
			continue
		}
		var def *models.BracketDef
		for i := range stage.Brackets {
			if stage.Brackets[i].ID == bracketID {
				def = &stage.Brackets[i]
				break
			}
		}
		if def == nil {
			continue
		}
		tpl, err := brackets.TemplateFor(def.Template, def.SeedCount)
		if err != nil {
			s.logger.Error("referee reassignment: bad bracket template",
				"bracket_id", bracketID, "error", err)
			continue
		}

		byKey := make(map[string]*models.Match, len(bracketMatches))
		for _, m := range bracketMatches {
			if m.TemplateKey != nil {
				byKey[*m.TemplateKey] = m
			}
		}
		courts := make(map[string]models.Court)
		for _, c := range settings.StageCourts(stage) {
			courts[c.Key()] = c
		}

		seeds := brackets.SeedsFromMatches(tpl, byKey)
		for _, changed := range brackets.AssignReferees(tpl, byKey, seeds, teams, courts) {
			if err := s.matchRepo.UpdateReferees(ctx, changed.ID, changed.RefereeTeamIDs); err != nil {
				return translateRepoError(err)
			}
		}
	}
	return nil
}

func (s *MatchService) teamsByID(ctx context.Context, tournamentID int) (map[int]*models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return byID, nil
}

// resultFromScoreboard derives the adjudicated snapshot from a terminal
// scoring-device state. Decisiveness rules: at least one completed set, no
// tied sets, and one side with strictly more sets.
func resultFromScoreboard(scoreboard *models.Scoreboard, teamAID, teamBID int) (*models.MatchResult, error) {
	if len(scoreboard.Sets) == 0 {
		return nil, fmt.Errorf("%w: no completed sets", ErrScoreboardIndecisive)
	}

	result := &models.MatchResult{Sets: scoreboard.Sets}
	for _, set := range scoreboard.Sets {
		if set.A == set.B {
			return nil, fmt.Errorf("%w: %d-%d", ErrScoreboardInvalidSet, set.A, set.B)
		}
		if set.A > set.B {
			result.SetsA++
		} else {
			result.SetsB++
		}
		result.PointsA += set.A
		result.PointsB += set.B
	}
	if result.SetsA == result.SetsB {
		return nil, fmt.Errorf("%w: sets %d-%d", ErrScoreboardIndecisive, result.SetsA, result.SetsB)
	}

	if result.SetsA > result.SetsB {
		result.WinnerTeamID, result.LoserTeamID = teamAID, teamBID
	} else {
		result.WinnerTeamID, result.LoserTeamID = teamBID, teamAID
	}
	return result, nil
}

func matchIDs(matches []*models.Match) []int {
	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}
