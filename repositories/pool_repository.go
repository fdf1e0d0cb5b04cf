package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrPoolNotFound     = errors.New("pool not found")
	ErrPoolNameConflict = errors.New("pool name already exists for this stage")
	ErrPoolTeamInvalid  = errors.New("pool references an unknown team")
)

type PoolRepository interface {
	Create(ctx context.Context, pool *models.Pool) error
	GetByID(ctx context.Context, id int) (*models.Pool, error)
	ListByTournament(ctx context.Context, tournamentID int, stageKey *string) ([]*models.Pool, error)
	UpdateTeamIDs(ctx context.Context, id int, teamIDs []int) error
	UpdateCourt(ctx context.Context, id int, facility, court string) error
	DeleteByTournamentStage(ctx context.Context, tournamentID int, stageKey string) error
}

type postgresPoolRepository struct {
	db SQLExecutor
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	query := `
		INSERT INTO pools (tournament_id, stage_key, name, required_size, team_ids, facility, court)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		pool.TournamentID,
		pool.StageKey,
		pool.Name,
		pool.RequiredSize,
		pq.Array(intsToInt64s(pool.TeamIDs)),
		pool.Facility,
		pool.Court,
	).Scan(&pool.ID, &pool.CreatedAt)

	return r.handlePoolError(err)
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	query := `
		SELECT id, tournament_id, stage_key, name, required_size, team_ids, facility, court, created_at
		FROM pools
		WHERE id = $1`

	return r.scanPool(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPoolRepository) ListByTournament(ctx context.Context, tournamentID int, stageKey *string) ([]*models.Pool, error) {
	query := `
		SELECT id, tournament_id, stage_key, name, required_size, team_ids, facility, court, created_at
		FROM pools
		WHERE tournament_id = $1`
	args := []interface{}{tournamentID}

	if stageKey != nil {
		query += ` AND stage_key = $2`
		args = append(args, *stageKey)
	}
	query += ` ORDER BY stage_key ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := make([]*models.Pool, 0)
	for rows.Next() {
		pool, scanErr := r.scanPool(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pools = append(pools, pool)
	}
	return pools, rows.Err()
}

func (r *postgresPoolRepository) UpdateTeamIDs(ctx context.Context, id int, teamIDs []int) error {
	query := `UPDATE pools SET team_ids = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(intsToInt64s(teamIDs)), id)
	if err != nil {
		return r.handlePoolError(err)
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

func (r *postgresPoolRepository) UpdateCourt(ctx context.Context, id int, facility, court string) error {
	query := `UPDATE pools SET facility = $1, court = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, facility, court, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

func (r *postgresPoolRepository) DeleteByTournamentStage(ctx context.Context, tournamentID int, stageKey string) error {
	query := `DELETE FROM pools WHERE tournament_id = $1 AND stage_key = $2`
	_, err := r.db.ExecContext(ctx, query, tournamentID, stageKey)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresPoolRepository) scanPool(row rowScanner) (*models.Pool, error) {
	pool := &models.Pool{}
	var teamIDs pq.Int64Array
	err := row.Scan(
		&pool.ID,
		&pool.TournamentID,
		&pool.StageKey,
		&pool.Name,
		&pool.RequiredSize,
		&teamIDs,
		&pool.Facility,
		&pool.Court,
		&pool.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	pool.TeamIDs = int64sToInts(teamIDs)
	return pool, nil
}

func (r *postgresPoolRepository) handlePoolError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrPoolNameConflict
		case "23503":
			return ErrPoolTeamInvalid
		}
	}
	return err
}
