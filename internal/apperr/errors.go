package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoData        = errors.New("no data for month")
	ErrAlreadyExists = errors.New("already exists")
)
