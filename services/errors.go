package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки реестра регистраций и платежей
	ErrDuplicateRegistration       = errors.New("already registered for this competition")
	ErrCapacityExceeded            = errors.New("competition is full")
	ErrTeamTooLarge                = errors.New("team has more members than the competition allows")
	ErrNotRegistered               = errors.New("not registered for this competition")
	ErrPaymentRequired             = errors.New("competition has an entry fee, registration goes through payment")
	ErrPaymentNotRequired          = errors.New("competition has no entry fee")
	ErrPaymentValidationFailed     = errors.New("payment details are invalid")
	ErrPaymentDeclined             = errors.New("payment was declined")
	ErrAlreadyPaid                 = errors.New("entry fee already paid")
	ErrNotPaid                     = errors.New("entry fee was not paid")
	ErrPrizeDistributionNotAllowed = errors.New("prize pool can only be distributed for a completed competition with a prize pool")
	ErrNoPaidTeams                 = errors.New("no paid teams to distribute the prize pool to")
	ErrWrongCompetitionType        = errors.New("operation does not match the competition type")
	ErrRegistrationClosed          = errors.New("competition is not open for registration")
	ErrEntryFeeChanged             = errors.New("entry fee changed while the payment was processed")
	ErrRefundChanged               = errors.New("refund record changed before it could be reverted")
	ErrSnapshotsDisabled           = errors.New("snapshots are disabled: object storage is not configured")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidEmail        = errors.New("email address is invalid")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrTeamFull            = errors.New("team is full")
	ErrUserAlreadyInTeam   = errors.New("user is already a member of this team")
	ErrUserNotInTeam       = errors.New("user is not a member of this team")
	ErrCannotRemoveOwner   = errors.New("the team owner cannot leave the team")
	ErrNoSavedCard         = errors.New("no saved card found for this user")
	ErrContactFieldMissing = errors.New("name, email and message are required")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrUserMustBeOwner      = errors.New("only the team owner can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound           = errors.New("user not found")
	ErrTeamNotFound           = errors.New("team not found")
	ErrCompetitionNotFound    = errors.New("competition not found")
	ErrCardNotFound           = errors.New("saved card not found")
	ErrContactMessageNotFound = errors.New("contact message not found")
	ErrPaymentNotFound        = errors.New("payment not found")

	// Ошибки соревнований
	ErrCompetitionNameRequired            = errors.New("competition name is required")
	ErrCompetitionInvalidType             = errors.New("competition type must be 'team' or 'individual'")
	ErrCompetitionInvalidCapacity         = errors.New("competition capacity must be positive and not below the current registrations")
	ErrCompetitionInvalidAmounts          = errors.New("entry fee and prize pool must not be negative")
	ErrCompetitionInvalidDateRange        = errors.New("competition end date must be after start date")
	ErrCompetitionInvalidStatus           = errors.New("invalid competition status provided")
	ErrCompetitionInvalidStatusTransition = errors.New("invalid competition status transition")
)
