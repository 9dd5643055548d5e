package services

import "errors"

// Sentinel errors shared across services and mapped to HTTP status codes
// by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rule errors.
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrSelfMatchForbidden    = errors.New("a match needs two distinct players")
	ErrMatchNotActionable    = errors.New("match is not in a state allowing this action")
	ErrSeriesAlreadyDecided  = errors.New("series already has a winner")
	ErrGameAlreadyReported   = errors.New("series game already has a result")
	ErrPlayersNotInSeries    = errors.New("reported players do not belong to the series")
	ErrRoundNotActivatable   = errors.New("round is not in a state allowing activation")
	ErrTournamentNotPrepared = errors.New("tournament has no prepared round plan")
	ErrBadRoundConfiguration = errors.New("round configuration is invalid for this format")
	ErrNotEnoughParticipants = errors.New("not enough accepted participants")

	// Conflict errors.
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrRegistrationConflict   = errors.New("user is already registered for this tournament")

	// Authentication and authorization errors.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrOnlyLoserMayRespond  = errors.New("only the losing player can confirm or dispute a match")
	ErrAdminOnly            = errors.New("administrator privileges required")

	// Entity-specific not-found errors.
	ErrUserNotFound       = errors.New("user not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrSeriesNotFound     = errors.New("series not found")
	ErrSeriesGameNotFound = errors.New("series game not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrTournamentNotFound = errors.New("tournament not found")
)
