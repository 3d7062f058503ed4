package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
// Precondition-ошибки соответствуют стабильным кодам API.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAdminKey    = errors.New("invalid admin key")
	ErrNegativeScore      = errors.New("scores must be non-negative integers")
	ErrInvalidTimeSlot    = errors.New("time slot must be in HH:MM format")
	ErrNoCourtsProvided   = errors.New("at least one court is required")
	ErrNoTimeSlots        = errors.New("at least one time slot is required")

	// Precondition-ошибки фазовой машины и записи результатов
	ErrNotEnoughTeams          = errors.New("need at least 2 fully-formed teams to start the tournament")
	ErrPhaseAlreadyStarted     = errors.New("tournament phase already started")
	ErrGroupPhaseIncomplete    = errors.New("all group matches must be finished before the knockout phase")
	ErrInsufficientQualifiers  = errors.New("not enough qualified teams for a knockout bracket")
	ErrIncompleteRound         = errors.New("all matches of the current round must be finished")
	ErrMatchAlreadyFinished    = errors.New("match result has already been recorded")
	ErrKnockoutTieNotAllowed   = errors.New("knockout matches cannot end in a tie")
	ErrTeamNotInMatch          = errors.New("team is not playing in this match")
	ErrTournamentNotActive     = errors.New("tournament has no schedulable phase")
	ErrRegistrationClosed      = errors.New("team registration is only open while the tournament is waiting")
	ErrTeamIncomplete          = errors.New("team must have two members to be registered")
	ErrTeamAlreadyRegistered   = errors.New("team is already registered for this tournament")
	ErrTeamFull                = errors.New("team already has two members")
	ErrTournamentNotFinishable = errors.New("tournament cannot be finished yet")

	// Ошибки планировщика кортов
	ErrScheduleCapacityExceeded = errors.New("not enough court capacity within the scheduling horizon")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrLicenseConflict        = errors.New("license number is already in use")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrCourtNotFound      = errors.New("court not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrBookingNotFound    = errors.New("match has no court booking")

	// Сущность нельзя удалить, пока на неё ссылаются
	ErrResourceInUse = errors.New("resource is referenced and cannot be deleted")
)
