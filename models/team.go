package models

import "time"

// Team is a competing entity within a single tournament. Seed is the
// registration/seeding order used by serpentine pool fill and bracket
// seeding. Lat/Lon are optional and feed the referee distance tie-break.
type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	ShortName    string    `json:"short_name" db:"short_name"`
	Seed         int       `json:"seed" db:"seed"`
	Lat          *float64  `json:"lat,omitempty" db:"lat"`
	Lon          *float64  `json:"lon,omitempty" db:"lon"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`
}

// DisplayName prefers the short name on scoreboards.
func (t *Team) DisplayName() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}
