package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/logger"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Err maps the service sentinels onto HTTP statuses. Unknown errors are
// reported as 500 without leaking their text.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "internal error",
			logger.String("path", r.URL.Path), logger.ErrorF(err))
		msg = "internal server error"
	}

	JSON(w, status, errorBody{Code: status, Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrRequestNotFound),
		errors.Is(err, model.ErrEquipmentNotFound),
		errors.Is(err, model.ErrTeamNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrTechnicianNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses the JSON request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(model.ErrValidation, err)
	}
	return nil
}
