package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

type TournamentService struct {
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	teamRepo       repositories.TeamRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
) *TournamentService {
	return &TournamentService{
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		teamRepo:       teamRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
	}
}

func (s *TournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	if strings.TrimSpace(tournament.Name) == "" {
		return fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if _, err := s.formatRepo.GetByID(ctx, tournament.FormatID); err != nil {
		return translateRepoError(err)
	}
	if tournament.Status == "" {
		tournament.Status = models.TournamentStatusDraft
	}
	return s.tournamentRepo.Create(ctx, tournament)
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return tournament, nil
}

func (s *TournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *TournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	switch status {
	case models.TournamentStatusDraft, models.TournamentStatusActive, models.TournamentStatusCompleted:
	default:
		return fmt.Errorf("%w: unknown tournament status %q", ErrValidationFailed, status)
	}
	return translateRepoError(s.tournamentRepo.UpdateStatus(ctx, id, status))
}

// GetFullState assembles a tournament with its format, roster, pools and
// matches in one response, the payload a dashboard renders from. The four
// collection loads are independent and run concurrently.
func (s *TournamentService) GetFullState(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		format, err := s.formatRepo.GetByID(gctx, tournament.FormatID)
		if err != nil {
			return translateRepoError(err)
		}
		if _, err := format.Settings(); err != nil {
			return err
		}
		tournament.Format = format
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, id)
		if err != nil {
			return err
		}
		tournament.Teams = make([]models.Team, len(teams))
		for i, t := range teams {
			tournament.Teams[i] = *t
		}
		return nil
	})
	g.Go(func() error {
		pools, err := s.poolRepo.ListByTournament(gctx, id, nil)
		if err != nil {
			return err
		}
		tournament.Pools = make([]models.Pool, len(pools))
		for i, p := range pools {
			tournament.Pools[i] = *p
		}
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id, repositories.MatchFilter{})
		if err != nil {
			return err
		}
		tournament.Matches = make([]models.Match, len(matches))
		for i, m := range matches {
			tournament.Matches[i] = *m
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}
