package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by SearchError.Is.
var (
	ErrRegistryUnavailable = errors.New("registry unavailable")
	ErrFeedbackAborted     = errors.New("feedback aborted")
	ErrSessionPending      = errors.New("session pending")
)

// SearchErrorCode categorizes search errors.
type SearchErrorCode string

const (
	// ErrCodeRegistryUnavailable indicates listing, reading or toggling an
	// item failed.
	ErrCodeRegistryUnavailable SearchErrorCode = "REGISTRY_UNAVAILABLE"

	// ErrCodeFeedbackAborted indicates the question was dismissed or
	// rejected without an answer.
	ErrCodeFeedbackAborted SearchErrorCode = "FEEDBACK_ABORTED"

	// ErrCodeSessionPending indicates a snapshot from an earlier session
	// has not been restored yet.
	ErrCodeSessionPending SearchErrorCode = "SESSION_PENDING"
)

// SearchError represents an error that ended a search.
type SearchError struct {
	// Code identifies the error category.
	Code SearchErrorCode

	// Message is a human-readable description.
	Message string

	// ItemID identifies the affected item, if any.
	ItemID string

	// Step is the search step that failed, or -1 outside the search loop.
	Step int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ItemID != "" {
		msg += fmt.Sprintf(" (item=%s)", e.ItemID)
	}
	if e.Step >= 0 {
		msg += fmt.Sprintf(" (step=%d)", e.Step)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by code.
func (e *SearchError) Is(target error) bool {
	switch target {
	case ErrRegistryUnavailable:
		return e.Code == ErrCodeRegistryUnavailable
	case ErrFeedbackAborted:
		return e.Code == ErrCodeFeedbackAborted
	case ErrSessionPending:
		return e.Code == ErrCodeSessionPending
	}
	return false
}

// IsRegistryError returns true if err is a registry failure.
func IsRegistryError(err error) bool {
	return errors.Is(err, ErrRegistryUnavailable)
}

// IsAbortError returns true if the search ended without an answer.
func IsAbortError(err error) bool {
	return errors.Is(err, ErrFeedbackAborted)
}

// IsPendingError returns true if an unrestored session blocked a new one.
func IsPendingError(err error) bool {
	return errors.Is(err, ErrSessionPending)
}

func registryError(op, itemID string, step int, err error) *SearchError {
	return &SearchError{
		Code:    ErrCodeRegistryUnavailable,
		Message: op,
		ItemID:  itemID,
		Step:    step,
		Err:     err,
	}
}

func abortError(step int, err error) *SearchError {
	return &SearchError{
		Code:    ErrCodeFeedbackAborted,
		Message: "question dismissed without an answer",
		Step:    step,
		Err:     err,
	}
}

func pendingError(sessionID string) *SearchError {
	return &SearchError{
		Code:    ErrCodeSessionPending,
		Message: fmt.Sprintf("session %s has not been restored; run restore or resume it", sessionID),
		Step:    -1,
	}
}

func heldError(sessionID string, err error) *SearchError {
	return &SearchError{
		Code:    ErrCodeSessionPending,
		Message: fmt.Sprintf("session %s is still running in another process", sessionID),
		Step:    -1,
		Err:     err,
	}
}
