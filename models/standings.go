package models

// StandingsEntry is derived, never persisted. Recomputed on every read from
// the current set of finalized matches.
type StandingsEntry struct {
	Rank          int     `json:"rank"`
	TeamID        int     `json:"team_id"`
	Played        int     `json:"played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	SetsWon       int     `json:"sets_won"`
	SetsLost      int     `json:"sets_lost"`
	SetPct        float64 `json:"set_pct"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	PointDiff     int     `json:"point_diff"`

	Team *Team `json:"team,omitempty"`
}

// OverrideScopeOverall is the scope value for a whole-stage override; pool
// overrides use "pool:<pool name>".
const OverrideScopeOverall = "overall"

// RankingOverride replaces the computed order for one scope with a manually
// supplied permutation of the same team-id set.
type RankingOverride struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	StageKey     string `json:"stage_key" db:"stage_key"`
	Scope        string `json:"scope" db:"scope"`
	TeamIDs      []int  `json:"team_ids" db:"team_ids"`
}
