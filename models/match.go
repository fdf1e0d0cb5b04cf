package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusEnded     MatchStatus = "ended"
	MatchStatusFinal     MatchStatus = "final"
)

// MatchSlot names which side of an upstream result a participant reference
// points at.
type MatchSlot string

const (
	SlotWinner MatchSlot = "winner"
	SlotLoser  MatchSlot = "loser"
)

type MatchPhase string

const (
	PhasePool      MatchPhase = "pool"
	PhaseCrossover MatchPhase = "crossover"
	PhasePlayoff   MatchPhase = "playoff"
)

// SetScore is one completed set, side A first.
type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// MatchResult is the adjudicated snapshot written by finalize. It exists iff
// the match status is final.
type MatchResult struct {
	WinnerTeamID  int        `json:"winner_team_id"`
	LoserTeamID   int        `json:"loser_team_id"`
	SetsA         int        `json:"sets_a"`
	SetsB         int        `json:"sets_b"`
	Sets          []SetScore `json:"sets"`
	PointsA       int        `json:"points_a"`
	PointsB       int        `json:"points_b"`
}

// Match is a single scheduled game. A participant slot is either a concrete
// team id (TeamAID/TeamBID) or a reference to an upstream match's winner or
// loser (TeamAFromMatchID + TeamAFromSlot); a referenced slot with a nil team
// id is unresolved and rendered as TBD.
type Match struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	StageKey     string     `json:"stage_key" db:"stage_key"`
	Phase        MatchPhase `json:"phase" db:"phase"`
	PoolID       *int       `json:"pool_id,omitempty" db:"pool_id"`
	BracketID    *string    `json:"bracket_id,omitempty" db:"bracket_id"`
	TemplateKey  *string    `json:"template_key,omitempty" db:"template_key"`

	BracketRound *int   `json:"bracket_round,omitempty" db:"bracket_round"`
	RoundBlock   int    `json:"round_block" db:"round_block"`
	Facility     string `json:"facility" db:"facility"`
	Court        string `json:"court" db:"court"`

	TeamAID          *int       `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID          *int       `json:"team_b_id,omitempty" db:"team_b_id"`
	TeamAFromMatchID *int       `json:"team_a_from_match_id,omitempty" db:"team_a_from_match_id"`
	TeamAFromSlot    *MatchSlot `json:"team_a_from_slot,omitempty" db:"team_a_from_slot"`
	TeamBFromMatchID *int       `json:"team_b_from_match_id,omitempty" db:"team_b_from_match_id"`
	TeamBFromSlot    *MatchSlot `json:"team_b_from_slot,omitempty" db:"team_b_from_slot"`

	RefereeTeamIDs []int `json:"referee_team_ids" db:"referee_team_ids"`

	ScoreboardID string       `json:"scoreboard_id" db:"scoreboard_id"`
	Status       MatchStatus  `json:"status" db:"status"`
	Result       *MatchResult `json:"result,omitempty" db:"result"`
	FinalizedAt  *time.Time   `json:"finalized_at,omitempty" db:"finalized_at"`
	FinalizedBy  *string      `json:"finalized_by,omitempty" db:"finalized_by"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// ParticipantsResolved reports whether both slots hold a concrete team id.
func (m *Match) ParticipantsResolved() bool {
	return m.TeamAID != nil && m.TeamBID != nil
}
