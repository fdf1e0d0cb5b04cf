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

	"github.com/beachcomp/tournament-engine/services"
)

type jsonResponse map[string]interface{}

var logger = slog.Default()

// SetLogger replaces the package logger; called once from main after the
// application logger is built.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

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
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
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

func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return value, nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		logger.Error("failed to write error response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
	errorResponse(w, r, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, message)
}

// mapServiceErrorToHTTP translates the service error vocabulary into HTTP
// statuses: lookups to 404, conflicts to 409, decisiveness and permutation
// problems to 422, remaining business rules to 400, anything unknown to 500.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrPoolNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrFormatNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrScoreboardNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrPoolsAlreadyInitialized),
		errors.Is(err, services.ErrPoolsNotEmpty),
		errors.Is(err, services.ErrStageAlreadyGenerated),
		errors.Is(err, services.ErrStageLocked):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrScoreboardIndecisive),
		errors.Is(err, services.ErrScoreboardInvalidSet),
		errors.Is(err, services.ErrOverrideNotPermutation):
		unprocessableResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrTeamLocationIncomplete),
		errors.Is(err, services.ErrStageUnknown),
		errors.Is(err, services.ErrStageKindInvalid),
		errors.Is(err, services.ErrVenueCountInsufficient),
		errors.Is(err, services.ErrPoolIncomplete),
		errors.Is(err, services.ErrPoolFull),
		errors.Is(err, services.ErrTooManyTeams),
		errors.Is(err, services.ErrSeedCountMismatch),
		errors.Is(err, services.ErrMatchNotEnded),
		errors.Is(err, services.ErrMatchAlreadyFinal),
		errors.Is(err, services.ErrMatchNotFinal),
		errors.Is(err, services.ErrStatusFinalViaEndpoint),
		errors.Is(err, services.ErrStatusLockedByResult),
		errors.Is(err, services.ErrParticipantsUnresolved),
		errors.Is(err, services.ErrUnknownTeam),
		errors.Is(err, services.ErrTeamNotInPool),
		errors.Is(err, services.ErrStageMismatch),
		errors.Is(err, services.ErrTeamImmutable):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
