package project

import "errors"

// Sentinel kinds for project definition errors.
var (
	ErrInvalidDefinition = errors.New("invalid project definition")
	ErrLoadDefinition    = errors.New("load project definition failed")
)
