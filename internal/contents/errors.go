package contents

import "errors"

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPayload indicates a payload that breaks its kind's shape.
	ErrInvalidPayload = errors.New("invalid content payload")
)
