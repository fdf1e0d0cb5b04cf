package models

import "time"

// Scoreboard mirrors the live scoring device attached to a match. The engine
// never drives the score itself: it reads the terminal state on finalize and
// writes resets (zeroed score, renamed sides) when bracket participants
// change.
type Scoreboard struct {
	ID           string     `json:"id"`
	TournamentID int        `json:"tournament_id"`
	NameA        string     `json:"name_a"`
	NameB        string     `json:"name_b"`
	ScoreA       int        `json:"score_a"`
	ScoreB       int        `json:"score_b"`
	Sets         []SetScore `json:"sets"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Reset zeroes the running score and set history, keeping the side names.
func (s *Scoreboard) Reset() {
	s.ScoreA = 0
	s.ScoreB = 0
	s.Sets = nil
}
