package services

import (
	"context"
	"errors"
	"testing"

	"github.com/beachcomp/tournament-engine/models"
)

func TestFormatCreateValid(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewFormatService(f.formatRepo)

	format, err := svc.Create(context.Background(), "city open", testSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format.ID == 0 {
		t.Error("format not persisted")
	}
	if format.SettingsJSON == nil || *format.SettingsJSON == "" {
		t.Error("settings not serialized")
	}
}

func TestFormatCreateRejectsEmptyName(t *testing.T) {
	f := newFixture(t, 0)
	svc := NewFormatService(f.formatRepo)

	_, err := svc.Create(context.Background(), "  ", testSettings())
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error = %v, want ErrValidationFailed", err)
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.FormatSettings)
	}{
		{"no courts", func(s *models.FormatSettings) { s.Courts = nil }},
		{"unnamed court", func(s *models.FormatSettings) { s.Courts[0].Name = "" }},
		{"duplicate court", func(s *models.FormatSettings) { s.Courts[1] = s.Courts[0] }},
		{"no stages", func(s *models.FormatSettings) { s.Stages = nil }},
		{"blank stage key", func(s *models.FormatSettings) { s.Stages[0].Key = "" }},
		{"duplicate stage key", func(s *models.FormatSettings) { s.Stages[1].Key = s.Stages[0].Key }},
		{"unknown court reference", func(s *models.FormatSettings) { s.Stages[0].Courts = []string{"east/9"} }},
		{"pool stage without pools", func(s *models.FormatSettings) { s.Stages[0].Pools = nil }},
		{"pool too small", func(s *models.FormatSettings) { s.Stages[0].Pools[0].Size = 1 }},
		{"duplicate pool name", func(s *models.FormatSettings) { s.Stages[0].Pools[1].Name = s.Stages[0].Pools[0].Name }},
		{"playoff stage without brackets", func(s *models.FormatSettings) { s.Stages[1].Brackets = nil }},
		{"bracket without id", func(s *models.FormatSettings) { s.Stages[1].Brackets[0].ID = "" }},
		{"template seed count mismatch", func(s *models.FormatSettings) { s.Stages[1].Brackets[0].SeedCount = 8 }},
		{"unknown template", func(s *models.FormatSettings) { s.Stages[1].Brackets[0].Template = "triple_knockout" }},
		{"unknown stage kind", func(s *models.FormatSettings) { s.Stages[0].Kind = "ladder" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			tt.mutate(settings)
			if err := validateSettings(settings); !errors.Is(err, ErrValidationFailed) {
				t.Errorf("error = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestValidateSettingsGenericBracket(t *testing.T) {
	settings := testSettings()
	// Empty template name means the generic single-elimination bracket.
	settings.Stages[1].Brackets[0].Template = ""
	settings.Stages[1].Brackets[0].SeedCount = 8

	if err := validateSettings(settings); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
