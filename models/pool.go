package models

import "time"

// Pool is a fixed-size subgroup of teams playing round-robin within a stage.
// TeamIDs is ordered; its length never exceeds RequiredSize.
type Pool struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	StageKey     string    `json:"stage_key" db:"stage_key"`
	Name         string    `json:"name" db:"name"`
	RequiredSize int       `json:"required_size" db:"required_size"`
	TeamIDs      []int     `json:"team_ids" db:"team_ids"`
	Facility     string    `json:"facility" db:"facility"`
	Court        string    `json:"court" db:"court"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Pool) HasTeam(teamID int) bool {
	for _, id := range p.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}
