package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrEmptyCompletion = errors.New("model returned empty completion")
	ErrNoDataset       = errors.New("no dataset provided")
)
