package types

import "errors"

// Domain errors shared across components
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrInvalidScore      = errors.New("score must be between 0 and 1")
	ErrLengthMismatch    = errors.New("vectors and metadata lengths differ")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidTopK       = errors.New("top_k must be positive")
)
