package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/beachcomp/tournament-engine/brackets"
	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
	"github.com/beachcomp/tournament-engine/schedule"
)

// GenerationService creates a stage's full match set: round-robin matches for
// pool and crossover stages, templated elimination matches for playoff stages.
// Every match gets a scoring-device record; creation is all-or-nothing via
// compensating deletes, since matches live in postgres and scoreboards in
// redis and no transaction spans both.
type GenerationService struct {
	matchRepo      repositories.MatchRepository
	poolRepo       repositories.PoolRepository
	teamRepo       repositories.TeamRepository
	scoreboardRepo repositories.ScoreboardRepository
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	notifier       Notifier
	logger         *slog.Logger
}

func NewGenerationService(
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	teamRepo repositories.TeamRepository,
	scoreboardRepo repositories.ScoreboardRepository,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	notifier Notifier,
	logger *slog.Logger,
) *GenerationService {
	return &GenerationService{
		matchRepo:      matchRepo,
		poolRepo:       poolRepo,
		teamRepo:       teamRepo,
		scoreboardRepo: scoreboardRepo,
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// GenerateStage builds and persists every match of one stage. seeds maps a
// bracket id onto its ordered team-id seed list and is required for playoff
// stages only. Without force, a stage that already has matches is a conflict;
// with force, the existing matches and their scoreboards are deleted first.
func (s *GenerationService) GenerateStage(ctx context.Context, tournamentID int, stageKey string, seeds map[string][]int, force bool) ([]*models.Match, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	format, err := s.formatRepo.GetByID(ctx, tournament.FormatID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	settings, err := format.Settings()
	if err != nil {
		return nil, err
	}
	stage := settings.Stage(stageKey)
	if stage == nil {
		return nil, fmt.Errorf("%w: %s", ErrStageUnknown, stageKey)
	}

	courts := settings.StageCourts(stage)
	if len(courts) == 0 {
		return nil, fmt.Errorf("%w: stage %s has no courts", ErrVenueCountInsufficient, stageKey)
	}

	count, err := s.matchRepo.CountByTournamentStage(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		if !force {
			return nil, fmt.Errorf("%w: stage %s has %d matches", ErrStageAlreadyGenerated, stageKey, count)
		}
		if err := s.deleteStage(ctx, tournamentID, stageKey); err != nil {
			return nil, err
		}
	}

	teams, err := s.teamsByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	startBlock, err := s.stageStartBlock(ctx, tournamentID, settings, stage)
	if err != nil {
		return nil, err
	}

	var matches []*models.Match
	var sources map[*models.Match]matchSources
	switch stage.Kind {
	case models.StageKindPool, models.StageKindCrossover:
		matches, err = s.buildRoundRobinStage(ctx, tournamentID, settings, stage, courts, startBlock)
	case models.StageKindPlayoff:
		matches, sources, err = s.buildPlayoffStage(tournamentID, stage, courts, seeds, teams, startBlock)
	default:
		err = fmt.Errorf("%w: unknown stage kind %q", ErrValidationFailed, stage.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := s.createWithRollback(ctx, tournamentID, matches, sources, teams); err != nil {
		return nil, err
	}

	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	notify(s.notifier, tournamentID, events.EventMatchesGenerated, map[string]interface{}{
		"stage_key": stageKey,
		"match_ids": ids,
	})
	return matches, nil
}

// buildRoundRobinStage produces each pool's round-robin matches and schedules
// them into (round block, court) slots, pools interleaved so every pool
// advances one match per block.
func (s *GenerationService) buildRoundRobinStage(
	ctx context.Context,
	tournamentID int,
	settings *models.FormatSettings,
	stage *models.StageDef,
	courts []models.Court,
	startBlock int,
) ([]*models.Match, error) {
	pools, err := s.poolRepo.ListByTournament(ctx, tournamentID, &stage.Key)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: stage %s has no pools", ErrPoolNotFound, stage.Key)
	}

	phase := models.PhasePool
	preferFacility := ""
	if stage.Kind == models.StageKindCrossover {
		phase = models.PhaseCrossover
		preferFacility = s.crossoverFacility(ctx, tournamentID, settings, stage, courts)
	}

	var all []*models.Match
	sets := make([]schedule.MatchSet, 0, len(pools))
	for _, pool := range pools {
		if len(pool.TeamIDs) < pool.RequiredSize {
			return nil, fmt.Errorf("%w: pool %s has %d of %d teams",
				ErrPoolIncomplete, pool.Name, len(pool.TeamIDs), pool.RequiredSize)
		}
		pairings, err := brackets.RoundRobinPairings(pool.TeamIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: pool %s: %v", ErrPoolIncomplete, pool.Name, err)
		}

		set := schedule.MatchSet{
			Key:       pool.Name,
			HomeCourt: pool.Facility + "/" + pool.Court,
		}
		for _, p := range pairings {
			a, b := p.TeamAID, p.TeamBID
			poolID := pool.ID
			m := &models.Match{
				TournamentID: tournamentID,
				StageKey:     stage.Key,
				Phase:        phase,
				PoolID:       &poolID,
				TeamAID:      &a,
				TeamBID:      &b,
				Status:       models.MatchStatusScheduled,
			}
			if p.RefereeTeamID != nil {
				m.RefereeTeamIDs = []int{*p.RefereeTeamID}
			}
			set.Matches = append(set.Matches, m)
			all = append(all, m)
		}
		sets = append(sets, set)
	}

	if err := schedule.AssignSlots(sets, courts, startBlock, preferFacility); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return all, nil
}

// matchSources records which matches feed a dependent match's slots; the
// dependency ids are copied from them once they are persisted.
type matchSources struct {
	a, b *models.Match
}

// buildPlayoffStage instantiates every bracket's template into match records.
// Rounds are scheduled strictly after each other so a match never shares a
// block with the match feeding it.
func (s *GenerationService) buildPlayoffStage(
	tournamentID int,
	stage *models.StageDef,
	courts []models.Court,
	seeds map[string][]int,
	teams map[int]*models.Team,
	startBlock int,
) ([]*models.Match, map[*models.Match]matchSources, error) {
	if len(stage.Brackets) == 0 {
		return nil, nil, fmt.Errorf("%w: stage %s defines no brackets", ErrValidationFailed, stage.Key)
	}

	courtsByKey := make(map[string]models.Court, len(courts))
	for _, c := range courts {
		courtsByKey[c.Key()] = c
	}

	type bracketBuild struct {
		tpl     *brackets.Template
		byKey   map[string]*models.Match
		ordered []*models.Match
	}

	var all []*models.Match
	builds := make([]bracketBuild, 0, len(stage.Brackets))
	maxRound := 0

	for _, def := range stage.Brackets {
		tpl, err := brackets.TemplateFor(def.Template, def.SeedCount)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bracket %s: %v", ErrValidationFailed, def.ID, err)
		}
		seedList, ok := seeds[def.ID]
		if !ok || len(seedList) != tpl.SeedCount {
			return nil, nil, fmt.Errorf("%w: bracket %s wants %d seeds, got %d",
				ErrSeedCountMismatch, def.ID, tpl.SeedCount, len(seeds[def.ID]))
		}
		for _, id := range seedList {
			if _, ok := teams[id]; !ok {
				return nil, nil, fmt.Errorf("%w: seed team %d", ErrUnknownTeam, id)
			}
		}

		bracketID := def.ID
		build := bracketBuild{tpl: tpl, byKey: make(map[string]*models.Match, len(tpl.Matches))}
		for _, tm := range tpl.Matches {
			key := tm.Key
			round := tm.Round
			m := &models.Match{
				TournamentID: tournamentID,
				StageKey:     stage.Key,
				Phase:        models.PhasePlayoff,
				BracketID:    &bracketID,
				TemplateKey:  &key,
				BracketRound: &round,
				Status:       models.MatchStatusScheduled,
			}
			if tm.SeedA != nil {
				id := seedList[*tm.SeedA-1]
				m.TeamAID = &id
			}
			if tm.SeedB != nil {
				id := seedList[*tm.SeedB-1]
				m.TeamBID = &id
			}
			if tm.SourceA != nil {
				m.TeamAFromSlot = &tm.SourceA.Slot
			}
			if tm.SourceB != nil {
				m.TeamBFromSlot = &tm.SourceB.Slot
			}
			build.byKey[key] = m
			build.ordered = append(build.ordered, m)
			if round > maxRound {
				maxRound = round
			}
		}

		brackets.AssignReferees(tpl, build.byKey, seedList, teams, courtsByKey)
		builds = append(builds, build)
		all = append(all, build.ordered...)
	}

	// One scheduling pass per template round: a round's matches fit into
	// ceil(n/courts) blocks and the next round starts after them.
	cursor := startBlock
	for round := 1; round <= maxRound; round++ {
		var sets []schedule.MatchSet
		total := 0
		for _, b := range builds {
			var roundMatches []*models.Match
			for _, m := range b.ordered {
				if *m.BracketRound == round {
					roundMatches = append(roundMatches, m)
				}
			}
			if len(roundMatches) > 0 {
				sets = append(sets, schedule.MatchSet{Key: *roundMatches[0].BracketID, Matches: roundMatches})
				total += len(roundMatches)
			}
		}
		if total == 0 {
			continue
		}
		if err := schedule.AssignSlots(sets, courts, cursor, ""); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		cursor += (total + len(courts) - 1) / len(courts)
	}

	sources := make(map[*models.Match]matchSources)
	for _, b := range builds {
		for _, tm := range b.tpl.Matches {
			if tm.SourceA == nil && tm.SourceB == nil {
				continue
			}
			src := matchSources{}
			if tm.SourceA != nil {
				src.a = b.byKey[tm.SourceA.MatchKey]
			}
			if tm.SourceB != nil {
				src.b = b.byKey[tm.SourceB.MatchKey]
			}
			sources[b.byKey[tm.Key]] = src
		}
	}
	return all, sources, nil
}

// createWithRollback persists every match and its scoreboard. Matches arrive
// with bracket sources ordered before their dependents, so a dependent can
// copy its source ids from the already-persisted records. On any failure all
// records created so far in this call are deleted before the error
// propagates, leaving no partial stage.
func (s *GenerationService) createWithRollback(ctx context.Context, tournamentID int, matches []*models.Match, sources map[*models.Match]matchSources, teams map[int]*models.Team) error {
	var createdScoreboards []string
	var createdMatches []int

	rollback := func() {
		for _, id := range createdMatches {
			if err := s.matchRepo.Delete(ctx, id); err != nil {
				s.logger.Error("rollback: failed to delete match", "match_id", id, "error", err)
			}
		}
		for _, id := range createdScoreboards {
			if err := s.scoreboardRepo.Delete(ctx, id); err != nil {
				s.logger.Error("rollback: failed to delete scoreboard", "scoreboard_id", id, "error", err)
			}
		}
	}

	for _, m := range matches {
		scoreboard := &models.Scoreboard{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			NameA:        sideName(teams, m.TeamAID),
			NameB:        sideName(teams, m.TeamBID),
		}
		if err := s.scoreboardRepo.Create(ctx, scoreboard); err != nil {
			rollback()
			return fmt.Errorf("failed to create scoreboard: %w", err)
		}
		createdScoreboards = append(createdScoreboards, scoreboard.ID)

		if src, ok := sources[m]; ok {
			if src.a != nil {
				id := src.a.ID
				m.TeamAFromMatchID = &id
			}
			if src.b != nil {
				id := src.b.ID
				m.TeamBFromMatchID = &id
			}
		}
		m.ScoreboardID = scoreboard.ID
		if err := s.matchRepo.Create(ctx, m); err != nil {
			rollback()
			return fmt.Errorf("failed to create match: %w", err)
		}
		createdMatches = append(createdMatches, m.ID)
	}
	return nil
}

// deleteStage removes a stage's matches together with their scoreboards, the
// force-regeneration path. Scoreboards go first so a failure leaves matches
// still listable for a retry.
func (s *GenerationService) deleteStage(ctx context.Context, tournamentID int, stageKey string) error {
	existing, err := s.matchRepo.ListByTournament(ctx, tournamentID, repositories.MatchFilter{StageKey: &stageKey})
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.ScoreboardID == "" {
			continue
		}
		if err := s.scoreboardRepo.Delete(ctx, m.ScoreboardID); err != nil && !errors.Is(err, repositories.ErrScoreboardNotFound) {
			return fmt.Errorf("failed to delete scoreboard %s: %w", m.ScoreboardID, err)
		}
	}
	return s.matchRepo.DeleteByTournamentStage(ctx, tournamentID, stageKey)
}

// stageStartBlock keeps the whole-day schedule monotonic: a stage starts
// strictly after the last block used by any lower-order stage.
func (s *GenerationService) stageStartBlock(ctx context.Context, tournamentID int, settings *models.FormatSettings, stage *models.StageDef) (int, error) {
	existing, err := s.matchRepo.ListByTournament(ctx, tournamentID, repositories.MatchFilter{})
	if err != nil {
		return 0, err
	}
	orders := make(map[string]int, len(settings.Stages))
	for _, def := range settings.Stages {
		orders[def.Key] = def.Order
	}
	return schedule.NextStartBlock(existing, func(stageKey string) bool {
		order, ok := orders[stageKey]
		return ok && order < stage.Order
	}), nil
}

// crossoverFacility concentrates a crossover stage where its source pools
// played. Best-effort: with no earlier pool stage there is no preference.
func (s *GenerationService) crossoverFacility(ctx context.Context, tournamentID int, settings *models.FormatSettings, stage *models.StageDef, courts []models.Court) string {
	var sourceKey string
	sourceOrder := -1
	for _, def := range settings.Stages {
		if def.Order < stage.Order && def.Order > sourceOrder && len(def.Pools) > 0 {
			sourceKey = def.Key
			sourceOrder = def.Order
		}
	}
	if sourceKey == "" {
		return ""
	}
	pools, err := s.poolRepo.ListByTournament(ctx, tournamentID, &sourceKey)
	if err != nil || len(pools) == 0 {
		return ""
	}
	sourcePools := make([]models.Pool, len(pools))
	for i, p := range pools {
		sourcePools[i] = *p
	}
	return schedule.PreferredFacility(sourcePools, courts)
}

func (s *GenerationService) teamsByID(ctx context.Context, tournamentID int) (map[int]*models.Team, error) {
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

func sideName(teams map[int]*models.Team, id *int) string {
	if id == nil {
		return "TBD"
	}
	if t, ok := teams[*id]; ok {
		return t.DisplayName()
	}
	return "TBD"
}
