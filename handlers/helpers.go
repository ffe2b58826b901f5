package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/competition-ledger/middleware"
	"github.com/Dosada05/competition-ledger/services"
	"github.com/Dosada05/competition-ledger/storage"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Паника, т.к. это ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error writing error JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

// storageCorruptResponse: данные в хранилище повреждены, запрос не выполнен, блоб не тронут.
func storageCorruptResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Stored data is corrupt", slog.String("path", r.URL.Path), slog.Any("error", err))
	errorResponse(w, r, http.StatusInternalServerError, jsonResponse{
		"code":    "STORAGE_CORRUPT",
		"message": "stored data is corrupt and was left unchanged; restore a snapshot or repair the record",
	})
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "the requested resource could not be found"
	}
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrStorageCorrupt):
		storageCorruptResponse(w, r, err)

	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrCompetitionNotFound),
		errors.Is(err, services.ErrCardNotFound),
		errors.Is(err, services.ErrContactMessageNotFound),
		errors.Is(err, services.ErrPaymentNotFound):
		notFoundResponse(w, r, err.Error())

	// Конфликты состояния реестра
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrDuplicateRegistration),
		errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrEntryFeeChanged),
		errors.Is(err, services.ErrUserAlreadyInTeam),
		errors.Is(err, services.ErrTeamFull):
		conflictResponse(w, r, err.Error())

	// Платёж
	case errors.Is(err, services.ErrPaymentRequired):
		errorResponse(w, r, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrPaymentDeclined):
		errorResponse(w, r, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrPaymentValidationFailed):
		unprocessableResponse(w, r, err.Error())

	// Бизнес-правила
	case errors.Is(err, services.ErrTeamTooLarge),
		errors.Is(err, services.ErrNotRegistered),
		errors.Is(err, services.ErrNotPaid),
		errors.Is(err, services.ErrPaymentNotRequired),
		errors.Is(err, services.ErrPrizeDistributionNotAllowed),
		errors.Is(err, services.ErrNoPaidTeams),
		errors.Is(err, services.ErrWrongCompetitionType),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrNoSavedCard):
		unprocessableResponse(w, r, err.Error())

	// Невалидные данные
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrContactFieldMissing),
		errors.Is(err, services.ErrCompetitionNameRequired),
		errors.Is(err, services.ErrCompetitionInvalidType),
		errors.Is(err, services.ErrCompetitionInvalidCapacity),
		errors.Is(err, services.ErrCompetitionInvalidAmounts),
		errors.Is(err, services.ErrCompetitionInvalidDateRange),
		errors.Is(err, services.ErrCompetitionInvalidStatus),
		errors.Is(err, services.ErrCompetitionInvalidStatusTransition),
		errors.Is(err, services.ErrCannotRemoveOwner),
		errors.Is(err, services.ErrUserNotInTeam):
		badRequestResponse(w, r, err)

	// Ошибки авторизации/доступа
	case errors.Is(err, services.ErrAuthenticationFailed),
		errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrUserMustBeOwner):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrSnapshotsDisabled):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int64, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// actorFromRequest собирает текущего пользователя из claims, положенных middleware.Authenticate.
func actorFromRequest(r *http.Request) (services.Actor, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(r.Context())}, nil
}

func toInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func paymentIDFromURL(r *http.Request) string {
	return chi.URLParam(r, "paymentID")
}
