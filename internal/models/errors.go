package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a listing or saved search does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user acts on a record they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrSignInRequired is returned when an action needs an authenticated user.
	ErrSignInRequired = errors.New("sign in required")
	// ErrListingExists is returned when a listing with the same ID was already created.
	ErrListingExists = errors.New("listing already exists")
)

// ValidationError reports the fields a draft is missing or has invalid.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// DecodeError is returned when a stored record cannot be turned into a typed model.
type DecodeError struct {
	Collection string
	ID         string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SkippedRecordsError is returned by list queries next to the records that did
// decode when some stored records are malformed.
type SkippedRecordsError struct {
	Skipped []*DecodeError
}

func (e *SkippedRecordsError) Error() string {
	ids := make([]string, 0, len(e.Skipped))
	for _, d := range e.Skipped {
		ids = append(ids, d.Collection+"/"+d.ID)
	}
	return fmt.Sprintf("skipped %d malformed records: %s", len(e.Skipped), strings.Join(ids, ", "))
}
