package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
	"github.com/beachcomp/tournament-engine/storage"
)

// TeamService manages the roster. Once a team appears in a finalized result
// only its cosmetic fields (names, crest) may change; seed and location are
// frozen because they feed pool fill and referee assignment.
type TeamService struct {
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
}

func NewTeamService(teamRepo repositories.TeamRepository, matchRepo repositories.MatchRepository, uploader storage.FileUploader) *TeamService {
	return &TeamService{teamRepo: teamRepo, matchRepo: matchRepo, uploader: uploader}
}

func (s *TeamService) Create(ctx context.Context, team *models.Team) error {
	if strings.TrimSpace(team.Name) == "" {
		return ErrTeamNameRequired
	}
	if (team.Lat == nil) != (team.Lon == nil) {
		return ErrTeamLocationIncomplete
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return translateRepoError(err)
	}
	return nil
}

func (s *TeamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	s.attachCrestURL(team)
	return team, nil
}

func (s *TeamService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		s.attachCrestURL(t)
	}
	return teams, nil
}

// Update applies roster edits. Competitive fields are rejected for teams
// already referenced by a finalized match.
func (s *TeamService) Update(ctx context.Context, team *models.Team) error {
	if strings.TrimSpace(team.Name) == "" {
		return ErrTeamNameRequired
	}
	if (team.Lat == nil) != (team.Lon == nil) {
		return ErrTeamLocationIncomplete
	}

	existing, err := s.teamRepo.GetByID(ctx, team.ID)
	if err != nil {
		return translateRepoError(err)
	}

	locked, err := s.referencedByFinalMatch(ctx, existing)
	if err != nil {
		return err
	}
	if locked && competitiveFieldsChanged(existing, team) {
		return fmt.Errorf("%w: only name and crest may change", ErrTeamImmutable)
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return translateRepoError(err)
	}
	return nil
}

func (s *TeamService) Delete(ctx context.Context, id int) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return translateRepoError(err)
	}
	locked, err := s.referencedByFinalMatch(ctx, team)
	if err != nil {
		return err
	}
	if locked {
		return ErrTeamImmutable
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	if team.CrestKey != nil && s.uploader != nil {
		// Best effort; an orphaned object in the bucket is harmless.
		_ = s.uploader.Delete(ctx, *team.CrestKey)
	}
	return nil
}

// UploadCrest stores a team's crest image and records its object key. The old
// crest object, if any, is removed afterwards.
func (s *TeamService) UploadCrest(ctx context.Context, teamID int, filename, contentType string, reader io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: crest storage is not configured", ErrValidationFailed)
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	ext := path.Ext(filename)
	key := fmt.Sprintf("crests/%d/%s%s", team.TournamentID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload crest: %w", err)
	}

	oldKey := team.CrestKey
	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, translateRepoError(err)
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	team.CrestKey = &key
	s.attachCrestURL(team)
	return team, nil
}

func (s *TeamService) attachCrestURL(team *models.Team) {
	if team.CrestKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*team.CrestKey)
	if url != "" {
		team.CrestURL = &url
	}
}

func (s *TeamService) referencedByFinalMatch(ctx context.Context, team *models.Team) (bool, error) {
	status := models.MatchStatusFinal
	matches, err := s.matchRepo.ListByTournament(ctx, team.TournamentID, repositories.MatchFilter{Status: &status})
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if deref(m.TeamAID) == team.ID || deref(m.TeamBID) == team.ID {
			return true, nil
		}
	}
	return false, nil
}

func competitiveFieldsChanged(old, updated *models.Team) bool {
	if old.Seed != updated.Seed {
		return true
	}
	return !floatPtrEqual(old.Lat, updated.Lat) || !floatPtrEqual(old.Lon, updated.Lon)
}

func floatPtrEqual(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
