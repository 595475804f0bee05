package service

import "errors"

var (
	// ErrEmptyInput is returned when an embedding is requested for blank
	// text. This is a programming error upstream, never user input.
	ErrEmptyInput = errors.New("embedding input is empty")

	// ErrGenerationFailed is returned when the generation backend produced
	// no usable content or a malformed structure. The plan run fails rather
	// than silently degrading to corpus-only results.
	ErrGenerationFailed = errors.New("recipe generation failed")
)
