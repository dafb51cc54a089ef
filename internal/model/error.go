package model

import "errors"

var (
	ErrValidation         = errors.New("validation error") // 400
	ErrUnauthorized       = errors.New("unauthorized")     // 401
	ErrForbidden          = errors.New("forbidden")        // 403
	ErrRequestNotFound    = errors.New("request not found")
	ErrEquipmentNotFound  = errors.New("equipment not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrConflict           = errors.New("conflict")                  // 409
	ErrInvalidTransition  = errors.New("invalid status transition") // 422
)
