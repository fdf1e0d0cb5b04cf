package models

import (
	"encoding/json"
	"fmt"
)

type StageKind string

const (
	StageKindPool      StageKind = "pool"
	StageKindCrossover StageKind = "crossover"
	StageKindPlayoff   StageKind = "playoff"
)

// Court is a named playing surface within a facility. Courts are declared by
// the format settings, not persisted on their own.
type Court struct {
	Facility string  `json:"facility"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
}

func (c Court) Key() string {
	return c.Facility + "/" + c.Name
}

// PoolDef declares one pool of a pool or crossover stage.
type PoolDef struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// BracketDef declares one elimination bracket of a playoff stage.
// Template names a registered bracket template ("five_seed") or is empty to
// use the generic single-elimination template sized by SeedCount.
type BracketDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SeedCount int    `json:"seed_count"`
	Template  string `json:"template,omitempty"`
}

// StageDef declares one stage of a tournament format. Order drives round
// block monotonicity across the day: a stage's matches always start after the
// last block used by any lower-order stage.
type StageDef struct {
	Key      string       `json:"key"`
	Order    int          `json:"order"`
	Kind     StageKind    `json:"kind"`
	Pools    []PoolDef    `json:"pools,omitempty"`
	Brackets []BracketDef `json:"brackets,omitempty"`
	Courts   []string     `json:"courts,omitempty"` // court keys; empty means all
}

// FormatSettings is the parsed shape of Format.SettingsJSON.
type FormatSettings struct {
	Courts []Court    `json:"courts"`
	Stages []StageDef `json:"stages"`
}

type Format struct {
	ID           int     `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	SettingsJSON *string `json:"-" db:"settings_json"`

	ParsedSettings *FormatSettings `json:"settings,omitempty" db:"-"`
}

// Settings parses SettingsJSON on first use and caches the result.
func (f *Format) Settings() (*FormatSettings, error) {
	if f.ParsedSettings != nil {
		return f.ParsedSettings, nil
	}
	if f.SettingsJSON == nil || *f.SettingsJSON == "" {
		return nil, fmt.Errorf("format %d has no settings", f.ID)
	}
	var s FormatSettings
	if err := json.Unmarshal([]byte(*f.SettingsJSON), &s); err != nil {
		return nil, fmt.Errorf("format %d settings are not valid JSON: %w", f.ID, err)
	}
	f.ParsedSettings = &s
	return &s, nil
}

// Stage returns the stage definition for key, or nil.
func (s *FormatSettings) Stage(key string) *StageDef {
	for i := range s.Stages {
		if s.Stages[i].Key == key {
			return &s.Stages[i]
		}
	}
	return nil
}

// StageCourts resolves a stage's court keys against the declared court list.
// A stage without an explicit court list uses every court.
func (s *FormatSettings) StageCourts(def *StageDef) []Court {
	if len(def.Courts) == 0 {
		return s.Courts
	}
	byKey := make(map[string]Court, len(s.Courts))
	for _, c := range s.Courts {
		byKey[c.Key()] = c
	}
	courts := make([]Court, 0, len(def.Courts))
	for _, key := range def.Courts {
		if c, ok := byKey[key]; ok {
			courts = append(courts, c)
		}
	}
	return courts
}
