package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

// MatchFilter narrows ListByTournament. Nil fields are ignored.
type MatchFilter struct {
	StageKey  *string
	Phase     *models.MatchPhase
	BracketID *string
	PoolID    *int
	Status    *models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error)
	UpdateParticipants(ctx context.Context, match *models.Match) error
	UpdateStatusResult(ctx context.Context, match *models.Match) error
	UpdateReferees(ctx context.Context, id int, refereeTeamIDs []int) error
	Delete(ctx context.Context, id int) error
	DeleteByTournamentStage(ctx context.Context, tournamentID int, stageKey string) error
	CountByTournamentStage(ctx context.Context, tournamentID int, stageKey string) (int, error)
}

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, stage_key, phase, pool_id, bracket_id, template_key,
	bracket_round, round_block, facility, court,
	team_a_id, team_b_id,
	team_a_from_match_id, team_a_from_slot, team_b_from_match_id, team_b_from_slot,
	referee_team_ids, scoreboard_id, status, result, finalized_at, finalized_by, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, stage_key, phase, pool_id, bracket_id, template_key,
			 bracket_round, round_block, facility, court,
			 team_a_id, team_b_id,
			 team_a_from_match_id, team_a_from_slot, team_b_from_match_id, team_b_from_slot,
			 referee_team_ids, scoreboard_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.StageKey,
		match.Phase,
		match.PoolID,
		match.BracketID,
		match.TemplateKey,
		match.BracketRound,
		match.RoundBlock,
		match.Facility,
		match.Court,
		match.TeamAID,
		match.TeamBID,
		match.TeamAFromMatchID,
		match.TeamAFromSlot,
		match.TeamBFromMatchID,
		match.TeamBFromSlot,
		pq.Array(intsToInt64s(match.RefereeTeamIDs)),
		match.ScoreboardID,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	addFilter := func(column string, value interface{}) {
		args = append(args, value)
		queryBuilder.WriteString(" AND " + column + " = $" + strconv.Itoa(len(args)))
	}

	if filter.StageKey != nil {
		addFilter("stage_key", *filter.StageKey)
	}
	if filter.Phase != nil {
		addFilter("phase", *filter.Phase)
	}
	if filter.BracketID != nil {
		addFilter("bracket_id", *filter.BracketID)
	}
	if filter.PoolID != nil {
		addFilter("pool_id", *filter.PoolID)
	}
	if filter.Status != nil {
		addFilter("status", *filter.Status)
	}

	queryBuilder.WriteString(" ORDER BY round_block ASC, bracket_round ASC NULLS FIRST, facility ASC, court ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateParticipants(ctx context.Context, match *models.Match) error {
	resultJSON, err := marshalResult(match.Result)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET team_a_id = $1, team_b_id = $2, referee_team_ids = $3,
		    status = $4, result = $5, finalized_at = $6, finalized_by = $7
		WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		match.TeamAID,
		match.TeamBID,
		pq.Array(intsToInt64s(match.RefereeTeamIDs)),
		match.Status,
		resultJSON,
		match.FinalizedAt,
		match.FinalizedBy,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatusResult(ctx context.Context, match *models.Match) error {
	resultJSON, err := marshalResult(match.Result)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET status = $1, result = $2, finalized_at = $3, finalized_by = $4
		WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		match.Status, resultJSON, match.FinalizedAt, match.FinalizedBy, match.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateReferees(ctx context.Context, id int, refereeTeamIDs []int) error {
	query := `UPDATE matches SET referee_team_ids = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, pq.Array(intsToInt64s(refereeTeamIDs)), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM matches WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournamentStage(ctx context.Context, tournamentID int, stageKey string) error {
	query := `DELETE FROM matches WHERE tournament_id = $1 AND stage_key = $2`
	_, err := r.db.ExecContext(ctx, query, tournamentID, stageKey)
	return err
}

func (r *postgresMatchRepository) CountByTournamentStage(ctx context.Context, tournamentID int, stageKey string) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND stage_key = $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, tournamentID, stageKey).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var refereeIDs pq.Int64Array
	var resultJSON []byte
	var slotA, slotB sql.NullString

	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.StageKey,
		&match.Phase,
		&match.PoolID,
		&match.BracketID,
		&match.TemplateKey,
		&match.BracketRound,
		&match.RoundBlock,
		&match.Facility,
		&match.Court,
		&match.TeamAID,
		&match.TeamBID,
		&match.TeamAFromMatchID,
		&slotA,
		&match.TeamBFromMatchID,
		&slotB,
		&refereeIDs,
		&match.ScoreboardID,
		&match.Status,
		&resultJSON,
		&match.FinalizedAt,
		&match.FinalizedBy,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if slotA.Valid {
		slot := models.MatchSlot(slotA.String)
		match.TeamAFromSlot = &slot
	}
	if slotB.Valid {
		slot := models.MatchSlot(slotB.String)
		match.TeamBFromSlot = &slot
	}
	match.RefereeTeamIDs = int64sToInts(refereeIDs)
	if len(resultJSON) > 0 {
		var result models.MatchResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("match %d has malformed result: %w", match.ID, err)
		}
		match.Result = &result
	}
	return match, nil
}

func marshalResult(result *models.MatchResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match result: %w", err)
	}
	return data, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_team_a_id_fkey", "matches_team_b_id_fkey":
				return ErrMatchParticipantInvalid
			}
		}
	}
	return err
}
