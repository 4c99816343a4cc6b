package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotInstalled     = errors.New("component not installed")
	ErrUnknownComponent = errors.New("unknown component")
	ErrDependencyCycle  = errors.New("dependency cycle")
)
