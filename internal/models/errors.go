package models

import "errors"

// Error constants for form and suggestion operations
var (
	// Field merge errors
	ErrUnknownField      = errors.New("unknown application field")
	ErrInvalidFieldValue = errors.New("invalid field value")

	// Remote persistence errors
	ErrPersistence         = errors.New("failed to persist application")
	ErrApplicationNotFound = errors.New("application not found")

	// Suggestion backend errors
	ErrSuggestionNotConfigured = errors.New("suggestion backend is not configured: set OPENAI_API_KEY")
	ErrSuggestionQuota         = errors.New("suggestion quota exceeded: check billing or provide an API key with available credits")
	ErrSuggestionAuth          = errors.New("invalid suggestion API key: check OPENAI_API_KEY")
	ErrSuggestionEmpty         = errors.New("no suggestion generated")
	ErrSuggestionFailed        = errors.New("failed to generate suggestion")

	// Form controller errors
	ErrSaveInProgress   = errors.New("a save is already in progress")
	ErrSubmitInProgress = errors.New("a submit is already in progress")
	ErrNotOnFinalStep   = errors.New("submit is only allowed on the final step")
	ErrAlreadySubmitted = errors.New("application has already been submitted")
	ErrNotSubmitted     = errors.New("application has not been submitted")
)
