package services

import "errors"

// Shared error vocabulary, mapped onto HTTP statuses by the handlers layer.
// Validation errors are never retried; conflict errors carry enough detail
// for the caller to decide to force; integrity errors abort with no partial
// writes. An unresolved bracket dependency is deliberately absent here: a
// TBD slot is not an error.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrTeamNameRequired        = errors.New("team name is required")
	ErrTeamLocationIncomplete  = errors.New("team location requires both lat and lon")
	ErrStageUnknown            = errors.New("stage key is not defined by the tournament format")
	ErrStageKindInvalid        = errors.New("operation does not apply to this stage kind")
	ErrVenueCountInsufficient  = errors.New("not enough courts for the stage's pools")
	ErrPoolIncomplete          = errors.New("pool does not have enough teams for round robin")
	ErrPoolFull                = errors.New("target pool is already at required size")
	ErrTooManyTeams            = errors.New("more teams than the stage's pools can hold")
	ErrSeedCountMismatch       = errors.New("seed list does not match bracket seed count")
	ErrMatchNotEnded           = errors.New("match must be ended before it can be finalized")
	ErrMatchAlreadyFinal       = errors.New("match is already finalized")
	ErrMatchNotFinal           = errors.New("match is not finalized")
	ErrStatusFinalViaEndpoint  = errors.New("final status can only be reached through finalize")
	ErrStatusLockedByResult    = errors.New("match status cannot change while a result exists")
	ErrParticipantsUnresolved  = errors.New("match participants have not been resolved yet")
	ErrScoreboardIndecisive    = errors.New("scoreboard state does not determine a winner")
	ErrScoreboardInvalidSet    = errors.New("scoreboard contains a tied set")
	ErrOverrideNotPermutation  = errors.New("ranking override is not a permutation of the team set")

	// Conflicts
	ErrPoolsAlreadyInitialized = errors.New("pools already exist for this stage")
	ErrPoolsNotEmpty           = errors.New("pools already contain teams; use force to overwrite")
	ErrStageAlreadyGenerated   = errors.New("matches already generated for this stage; use force to regenerate")
	ErrStageLocked             = errors.New("stage already has matches; pool changes are rejected")

	// Integrity
	ErrUnknownTeam     = errors.New("operation references an unknown team")
	ErrTeamNotInPool   = errors.New("team is not in the given pool")
	ErrStageMismatch   = errors.New("pools belong to different stages")
	ErrTeamImmutable   = errors.New("team is referenced by a finalized match")

	// Entity lookups
	ErrTeamNotFound       = errors.New("team not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrFormatNotFound     = errors.New("format not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrScoreboardNotFound = errors.New("scoreboard not found")
)
