package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beachcomp/tournament-engine/brackets"
	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
)

// FormatService validates and stores tournament formats. Validation is strict
// at write time so generation can trust the settings blob: stage keys unique,
// court references resolvable, pool sizes playable, bracket templates known.
type FormatService struct {
	formatRepo repositories.FormatRepository
}

func NewFormatService(formatRepo repositories.FormatRepository) *FormatService {
	return &FormatService{formatRepo: formatRepo}
}

func (s *FormatService) Create(ctx context.Context, name string, settings *models.FormatSettings) (*models.Format, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: format name is required", ErrValidationFailed)
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal format settings: %w", err)
	}
	raw := string(data)

	format := &models.Format{Name: name, SettingsJSON: &raw, ParsedSettings: settings}
	if err := s.formatRepo.Create(ctx, format); err != nil {
		return nil, translateRepoError(err)
	}
	return format, nil
}

func (s *FormatService) GetByID(ctx context.Context, id int) (*models.Format, error) {
	format, err := s.formatRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if _, err := format.Settings(); err != nil {
		return nil, err
	}
	return format, nil
}

func (s *FormatService) GetAll(ctx context.Context) ([]models.Format, error) {
	formats, err := s.formatRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range formats {
		if _, err := formats[i].Settings(); err != nil {
			return nil, err
		}
	}
	return formats, nil
}

func (s *FormatService) Delete(ctx context.Context, id int) error {
	return translateRepoError(s.formatRepo.Delete(ctx, id))
}

func validateSettings(settings *models.FormatSettings) error {
	if settings == nil || len(settings.Courts) == 0 {
		return fmt.Errorf("%w: format needs at least one court", ErrValidationFailed)
	}

	courtKeys := make(map[string]bool, len(settings.Courts))
	for _, c := range settings.Courts {
		if c.Facility == "" || c.Name == "" {
			return fmt.Errorf("%w: court needs facility and name", ErrValidationFailed)
		}
		if courtKeys[c.Key()] {
			return fmt.Errorf("%w: duplicate court %s", ErrValidationFailed, c.Key())
		}
		courtKeys[c.Key()] = true
	}

	if len(settings.Stages) == 0 {
		return fmt.Errorf("%w: format needs at least one stage", ErrValidationFailed)
	}
	stageKeys := make(map[string]bool, len(settings.Stages))
	for _, stage := range settings.Stages {
		if stage.Key == "" {
			return fmt.Errorf("%w: stage key is required", ErrValidationFailed)
		}
		if stageKeys[stage.Key] {
			return fmt.Errorf("%w: duplicate stage key %s", ErrValidationFailed, stage.Key)
		}
		stageKeys[stage.Key] = true

		for _, key := range stage.Courts {
			if !courtKeys[key] {
				return fmt.Errorf("%w: stage %s references unknown court %s", ErrValidationFailed, stage.Key, key)
			}
		}

		switch stage.Kind {
		case models.StageKindPool, models.StageKindCrossover:
			if len(stage.Pools) == 0 {
				return fmt.Errorf("%w: stage %s needs pools", ErrValidationFailed, stage.Key)
			}
			poolNames := make(map[string]bool, len(stage.Pools))
			for _, p := range stage.Pools {
				if p.Name == "" || p.Size < 2 {
					return fmt.Errorf("%w: stage %s pool %q needs a name and size >= 2",
						ErrValidationFailed, stage.Key, p.Name)
				}
				if poolNames[p.Name] {
					return fmt.Errorf("%w: stage %s duplicate pool %s", ErrValidationFailed, stage.Key, p.Name)
				}
				poolNames[p.Name] = true
			}
		case models.StageKindPlayoff:
			if len(stage.Brackets) == 0 {
				return fmt.Errorf("%w: stage %s needs brackets", ErrValidationFailed, stage.Key)
			}
			bracketIDs := make(map[string]bool, len(stage.Brackets))
			for _, b := range stage.Brackets {
				if b.ID == "" {
					return fmt.Errorf("%w: stage %s bracket needs an id", ErrValidationFailed, stage.Key)
				}
				if bracketIDs[b.ID] {
					return fmt.Errorf("%w: stage %s duplicate bracket %s", ErrValidationFailed, stage.Key, b.ID)
				}
				bracketIDs[b.ID] = true
				if _, err := brackets.TemplateFor(b.Template, b.SeedCount); err != nil {
					return fmt.Errorf("%w: stage %s bracket %s: %v", ErrValidationFailed, stage.Key, b.ID, err)
				}
			}
		default:
			return fmt.Errorf("%w: stage %s has unknown kind %q", ErrValidationFailed, stage.Key, stage.Kind)
		}
	}
	return nil
}
