package repository

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateTitle = errors.New("title already exists")
	ErrDuplicateCode  = errors.New("contract type code already exists")
	ErrUnknownUser    = errors.New("unknown user")
)
