package errors

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal server error")
	ErrDuplicate    = errors.New("resource already exists")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflicting concurrent update")

	// Validation pipeline errors
	ErrProofNotFound    = errors.New("proof not found")
	ErrProofDecided     = errors.New("proof already decided")
	ErrNotAssigned      = errors.New("voter is not an assigned validator")
	ErrAlreadyVoted     = errors.New("validator already voted on this proof")
	ErrUploadFailed     = errors.New("upload failed")
	ErrAlreadySettled   = errors.New("proof already settled")
	ErrGateNotSatisfied = errors.New("review quota not satisfied")
)
