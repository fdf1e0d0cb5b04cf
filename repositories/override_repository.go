package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/lib/pq"
)

var ErrOverrideNotFound = errors.New("ranking override not found")

type OverrideRepository interface {
	Upsert(ctx context.Context, override *models.RankingOverride) error
	Get(ctx context.Context, tournamentID int, stageKey, scope string) (*models.RankingOverride, error)
	Delete(ctx context.Context, tournamentID int, stageKey, scope string) error
}

type postgresOverrideRepository struct {
	db SQLExecutor
}

func NewPostgresOverrideRepository(db *sql.DB) OverrideRepository {
	return &postgresOverrideRepository{db: db}
}

func (r *postgresOverrideRepository) Upsert(ctx context.Context, override *models.RankingOverride) error {
	query := `
		INSERT INTO ranking_overrides (tournament_id, stage_key, scope, team_ids)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tournament_id, stage_key, scope)
		DO UPDATE SET team_ids = EXCLUDED.team_ids
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		override.TournamentID,
		override.StageKey,
		override.Scope,
		pq.Array(intsToInt64s(override.TeamIDs)),
	).Scan(&override.ID)
}

func (r *postgresOverrideRepository) Get(ctx context.Context, tournamentID int, stageKey, scope string) (*models.RankingOverride, error) {
	query := `
		SELECT id, tournament_id, stage_key, scope, team_ids
		FROM ranking_overrides
		WHERE tournament_id = $1 AND stage_key = $2 AND scope = $3`

	override := &models.RankingOverride{}
	var teamIDs pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, tournamentID, stageKey, scope).Scan(
		&override.ID,
		&override.TournamentID,
		&override.StageKey,
		&override.Scope,
		&teamIDs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}
	override.TeamIDs = int64sToInts(teamIDs)
	return override, nil
}

func (r *postgresOverrideRepository) Delete(ctx context.Context, tournamentID int, stageKey, scope string) error {
	query := `DELETE FROM ranking_overrides WHERE tournament_id = $1 AND stage_key = $2 AND scope = $3`
	result, err := r.db.ExecContext(ctx, query, tournamentID, stageKey, scope)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrOverrideNotFound)
}
