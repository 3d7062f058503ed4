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
	"github.com/go-playground/validator/v10"

	"github.com/padelhub/tournament-system/services"
)

type jsonResponse map[string]interface{}

var validate = validator.New()

var errBodyEmpty = errors.New("body must not be empty")

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
			return errBodyEmpty
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: dst не указатель
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

// readOptionalJSON — как readJSON, но пустое тело допустимо: dst остаётся
// нулевым значением.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := readJSON(w, r, dst); err != nil && !errors.Is(err, errBodyEmpty) {
		return err
	}
	return nil
}

// readValidatedJSON декодирует тело и прогоняет validate-теги DTO.
func readValidatedJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := readJSON(w, r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			return fmt.Errorf("field %q failed validation on %q", field.Field(), field.Tag())
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
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

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s URL parameter", param)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

// Стабильные коды precondition-ошибок: дашборд матчится по ним, не по тексту.
var stableErrorCodes = map[error]string{
	services.ErrNotEnoughTeams:           "NotEnoughTeams",
	services.ErrPhaseAlreadyStarted:      "PhaseAlreadyStarted",
	services.ErrGroupPhaseIncomplete:     "GroupPhaseIncomplete",
	services.ErrInsufficientQualifiers:   "InsufficientQualifiers",
	services.ErrIncompleteRound:          "IncompleteRound",
	services.ErrScheduleCapacityExceeded: "ScheduleCapacityExceeded",
	services.ErrMatchAlreadyFinished:     "MatchAlreadyFinished",
	services.ErrKnockoutTieNotAllowed:    "KnockoutTieNotAllowed",
	services.ErrRegistrationClosed:       "RegistrationClosed",
	services.ErrTeamIncomplete:           "TeamIncomplete",
	services.ErrTournamentNotActive:      "TournamentNotActive",
}

// mapServiceError переводит ошибки сервисного слоя в HTTP-ответ.
func mapServiceError(w http.ResponseWriter, err error) {
	for sentinel, code := range stableErrorCodes {
		if errors.Is(err, sentinel) {
			errorResponse(w, http.StatusBadRequest, code)
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrCourtNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrTournamentNameConflict),
		errors.Is(err, services.ErrLicenseConflict),
		errors.Is(err, services.ErrTeamAlreadyRegistered),
		errors.Is(err, services.ErrTeamFull),
		errors.Is(err, services.ErrResourceInUse):
		errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		errorResponse(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInvalidAdminKey):
		errorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrNegativeScore),
		errors.Is(err, services.ErrInvalidTimeSlot),
		errors.Is(err, services.ErrNoCourtsProvided),
		errors.Is(err, services.ErrNoTimeSlots),
		errors.Is(err, services.ErrTeamNotInMatch):
		errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		serverErrorResponse(w, err)
	}
}
