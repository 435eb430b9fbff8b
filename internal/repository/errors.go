package repository

import "errors"

// Common repository errors
var (
	// ErrHouseholdNotFound is returned when a household is not found
	ErrHouseholdNotFound = errors.New("household not found")

	// ErrInviteCodeInvalid is returned when no household holds an unexpired matching invite code
	ErrInviteCodeInvalid = errors.New("invite code is invalid or expired")

	// ErrProfileNotFound is returned when a profile is not found
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCategoryNotFound is returned when a category is not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")
)
