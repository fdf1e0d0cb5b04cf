package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/redis/go-redis/v9"
)

var ErrScoreboardNotFound = errors.New("scoreboard not found")

// ScoreboardRepository stores scoring-device records in redis: one JSON value
// per scoreboard plus a per-tournament id set, so forced regeneration can
// verify nothing is orphaned.
type ScoreboardRepository interface {
	Create(ctx context.Context, scoreboard *models.Scoreboard) error
	GetByID(ctx context.Context, id string) (*models.Scoreboard, error)
	Update(ctx context.Context, scoreboard *models.Scoreboard) error
	Delete(ctx context.Context, id string) error
	ListIDsByTournament(ctx context.Context, tournamentID int) ([]string, error)
}

type redisScoreboardRepository struct {
	client *redis.Client
}

func NewRedisScoreboardRepository(client *redis.Client) ScoreboardRepository {
	return &redisScoreboardRepository{client: client}
}

func scoreboardKey(id string) string {
	return "scoreboard:" + id
}

func tournamentScoreboardsKey(tournamentID int) string {
	return fmt.Sprintf("tournament:%d:scoreboards", tournamentID)
}

func (r *redisScoreboardRepository) Create(ctx context.Context, scoreboard *models.Scoreboard) error {
	scoreboard.UpdatedAt = time.Now()
	data, err := json.Marshal(scoreboard)
	if err != nil {
		return fmt.Errorf("failed to marshal scoreboard %s: %w", scoreboard.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, scoreboardKey(scoreboard.ID), data, 0)
	pipe.SAdd(ctx, tournamentScoreboardsKey(scoreboard.TournamentID), scoreboard.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisScoreboardRepository) GetByID(ctx context.Context, id string) (*models.Scoreboard, error) {
	data, err := r.client.Get(ctx, scoreboardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrScoreboardNotFound
		}
		return nil, err
	}

	var scoreboard models.Scoreboard
	if err := json.Unmarshal(data, &scoreboard); err != nil {
		return nil, fmt.Errorf("scoreboard %s is malformed: %w", id, err)
	}
	return &scoreboard, nil
}

func (r *redisScoreboardRepository) Update(ctx context.Context, scoreboard *models.Scoreboard) error {
	exists, err := r.client.Exists(ctx, scoreboardKey(scoreboard.ID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrScoreboardNotFound
	}

	scoreboard.UpdatedAt = time.Now()
	data, err := json.Marshal(scoreboard)
	if err != nil {
		return fmt.Errorf("failed to marshal scoreboard %s: %w", scoreboard.ID, err)
	}
	return r.client.Set(ctx, scoreboardKey(scoreboard.ID), data, 0).Err()
}

func (r *redisScoreboardRepository) Delete(ctx context.Context, id string) error {
	scoreboard, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, scoreboardKey(id))
	pipe.SRem(ctx, tournamentScoreboardsKey(scoreboard.TournamentID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisScoreboardRepository) ListIDsByTournament(ctx context.Context, tournamentID int) ([]string, error) {
	return r.client.SMembers(ctx, tournamentScoreboardsKey(tournamentID)).Result()
}
