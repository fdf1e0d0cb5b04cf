package models

import "time"

type TournamentStatus string

const (
	TournamentStatusDraft     TournamentStatus = "draft"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	FormatID  int              `json:"format_id" db:"format_id"`
	Location  *string          `json:"location,omitempty" db:"location"`
	Status    TournamentStatus `json:"status" db:"status"`
	StartDate time.Time        `json:"start_date" db:"start_date"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	Format  *Format `json:"format,omitempty" db:"-"`
	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Pools   []Pool  `json:"pools,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
