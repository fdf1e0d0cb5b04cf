package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

// PoolService builds and mutates the pools of a stage. Pools are created once
// per stage and locked against roster changes as soon as the stage has
// matches.
type PoolService struct {
	poolRepo       repositories.PoolRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	notifier       Notifier
}

func NewPoolService(
	poolRepo repositories.PoolRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	notifier Notifier,
) *PoolService {
	return &PoolService{
		poolRepo:       poolRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		notifier:       notifier,
	}
}

// InitializePools creates the empty pools a stage's definition calls for,
// assigning each pool a distinct court from the stage's court set.
func (s *PoolService) InitializePools(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error) {
	settings, stage, err := s.stageSettings(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	if stage.Kind != models.StageKindPool && stage.Kind != models.StageKindCrossover {
		return nil, fmt.Errorf("%w: stage %s is a %s stage", ErrStageKindInvalid, stageKey, stage.Kind)
	}
	if len(stage.Pools) == 0 {
		return nil, fmt.Errorf("%w: stage %s defines no pools", ErrValidationFailed, stageKey)
	}

	courts := settings.StageCourts(stage)
	if len(courts) < len(stage.Pools) {
		return nil, fmt.Errorf("%w: stage %s needs %d courts, has %d",
			ErrVenueCountInsufficient, stageKey, len(stage.Pools), len(courts))
	}

	existing, err := s.poolRepo.ListByTournament(ctx, tournamentID, &stageKey)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: stage %s has %d pools", ErrPoolsAlreadyInitialized, stageKey, len(existing))
	}

	pools := make([]*models.Pool, 0, len(stage.Pools))
	for i, def := range stage.Pools {
		pool := &models.Pool{
			TournamentID: tournamentID,
			StageKey:     stageKey,
			Name:         def.Name,
			RequiredSize: def.Size,
			TeamIDs:      []int{},
			Facility:     courts[i].Facility,
			Court:        courts[i].Name,
		}
		if err := s.poolRepo.Create(ctx, pool); err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}

	notify(s.notifier, tournamentID, events.EventPoolsUpdated, map[string]interface{}{
		"stage_key": stageKey,
		"pools":     pools,
	})
	return pools, nil
}

// AutoFillSerpentine distributes the tournament's teams, ordered by seed, into
// the stage's pools snaking forward then backward so pool strength stays
// balanced. Deterministic for the same team order and pool sizes. Refuses to
// overwrite non-empty pools unless forced.
func (s *PoolService) AutoFillSerpentine(ctx context.Context, tournamentID int, stageKey string, force bool) ([]*models.Pool, error) {
	if err := s.ensureStageUnlocked(ctx, tournamentID, stageKey); err != nil {
		return nil, err
	}

	pools, err := s.poolRepo.ListByTournament(ctx, tournamentID, &stageKey)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: stage %s has no pools to fill", ErrPoolNotFound, stageKey)
	}

	if !force {
		for _, p := range pools {
			if len(p.TeamIDs) > 0 {
				return nil, fmt.Errorf("%w: pool %s has %d teams", ErrPoolsNotEmpty, p.Name, len(p.TeamIDs))
			}
		}
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	capacity := 0
	sizes := make([]int, len(pools))
	for i, p := range pools {
		sizes[i] = p.RequiredSize
		capacity += p.RequiredSize
	}
	if len(teams) > capacity {
		return nil, fmt.Errorf("%w: %d teams into capacity %d", ErrTooManyTeams, len(teams), capacity)
	}

	teamIDs := make([]int, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}

	assignment := serpentine(teamIDs, sizes)
	for i, p := range pools {
		p.TeamIDs = assignment[i]
		if err := s.poolRepo.UpdateTeamIDs(ctx, p.ID, p.TeamIDs); err != nil {
			return nil, err
		}
	}

	notify(s.notifier, tournamentID, events.EventPoolsUpdated, map[string]interface{}{
		"stage_key": stageKey,
		"pools":     pools,
	})
	return pools, nil
}

// ReassignTeam moves a team from one pool to a position in another (or the
// same) pool. Rejected once the stage has matches, and when the target pool is
// already full.
func (s *PoolService) ReassignTeam(ctx context.Context, poolID, teamID, targetPoolID, targetIndex int) error {
	source, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return translateRepoError(err)
	}
	target := source
	if targetPoolID != poolID {
		target, err = s.poolRepo.GetByID(ctx, targetPoolID)
		if err != nil {
			return translateRepoError(err)
		}
	}

	if source.TournamentID != target.TournamentID || source.StageKey != target.StageKey {
		return ErrStageMismatch
	}
	if err := s.ensureStageUnlocked(ctx, source.TournamentID, source.StageKey); err != nil {
		return err
	}
	if !source.HasTeam(teamID) {
		return fmt.Errorf("%w: team %d not in pool %s", ErrTeamNotInPool, teamID, source.Name)
	}
	if target.ID != source.ID && len(target.TeamIDs) >= target.RequiredSize {
		return fmt.Errorf("%w: pool %s holds %d of %d", ErrPoolFull, target.Name, len(target.TeamIDs), target.RequiredSize)
	}

	source.TeamIDs = removeID(source.TeamIDs, teamID)
	target.TeamIDs = insertID(target.TeamIDs, teamID, targetIndex)

	if err := s.poolRepo.UpdateTeamIDs(ctx, source.ID, source.TeamIDs); err != nil {
		return err
	}
	if target.ID != source.ID {
		if err := s.poolRepo.UpdateTeamIDs(ctx, target.ID, target.TeamIDs); err != nil {
			return err
		}
	}

	notify(s.notifier, source.TournamentID, events.EventPoolsUpdated, map[string]interface{}{
		"stage_key": source.StageKey,
		"pools":     []*models.Pool{source, target},
	})
	return nil
}

func (s *PoolService) ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error) {
	return s.poolRepo.ListByTournament(ctx, tournamentID, &stageKey)
}

// ensureStageUnlocked rejects pool mutation once any match exists for the
// stage.
func (s *PoolService) ensureStageUnlocked(ctx context.Context, tournamentID int, stageKey string) error {
	count, err := s.matchRepo.CountByTournamentStage(ctx, tournamentID, stageKey)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: stage %s has %d matches", ErrStageLocked, stageKey, count)
	}
	return nil
}

func (s *PoolService) stageSettings(ctx context.Context, tournamentID int, stageKey string) (*models.FormatSettings, *models.StageDef, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	format, err := s.formatRepo.GetByID(ctx, tournament.FormatID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	settings, err := format.Settings()
	if err != nil {
		return nil, nil, err
	}
	stage := settings.Stage(stageKey)
	if stage == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrStageUnknown, stageKey)
	}
	return settings, stage, nil
}

// serpentine snakes an ordered team list across the pools: pass 1 fills pools
// 1..N, pass 2 fills N..1, and so on, skipping pools that reached their size.
func serpentine(teamIDs []int, sizes []int) [][]int {
	out := make([][]int, len(sizes))
	for i := range out {
		out[i] = []int{}
	}

	next := 0
	forward := true
	for next < len(teamIDs) {
		placed := false
		for step := 0; step < len(sizes) && next < len(teamIDs); step++ {
			i := step
			if !forward {
				i = len(sizes) - 1 - step
			}
			if len(out[i]) < sizes[i] {
				out[i] = append(out[i], teamIDs[next])
				next++
				placed = true
			}
		}
		if !placed {
			break
		}
		forward = !forward
	}
	return out
}

func removeID(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertID(ids []int, id, index int) []int {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	out := make([]int, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

// translateRepoError maps repository sentinel errors onto the service
// vocabulary so handlers only ever match against one set.
func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrPoolNotFound):
		return ErrPoolNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrFormatNotFound):
		return ErrFormatNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrScoreboardNotFound):
		return ErrScoreboardNotFound
	default:
		return err
	}
}
