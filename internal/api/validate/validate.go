// Package validate centralizes request-shape checks shared by the HTTP
// handlers, so each endpoint validates against the same rules instead of
// redefining them ad hoc.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserID must be lowercase letters, digits, underscore or hyphen, 1-36 chars.
var userIDRx = regexp.MustCompile(`^[a-z0-9_-]{1,36}$`)

// nameRx allows letters, digits, single spaces and hyphens.
var nameRx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]*$`)

func UserID(v string) error {
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("invalid user id")
	}
	return nil
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// Name validates a focus-area or label name: 1-50 bytes, letters/digits/
// space/hyphen, no leading space.
func Name(v string) error {
	if v == "" {
		return fmt.Errorf("name is required")
	}
	if len(v) > 50 {
		return fmt.Errorf("name exceeds 50 characters")
	}
	if !nameRx.MatchString(v) {
		return fmt.Errorf("name contains invalid characters; allowed letters, digits, space, hyphen")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func ResetHour(v int) error {
	if v < 0 || v > 23 {
		return fmt.Errorf("resetHour must be between 0 and 23")
	}
	return nil
}

// Chronological rejects intervals with end before or equal to start. The
// services treat such intervals as silent no-ops; the HTTP layer surfaces
// them as 400 so client bugs are not masked.
func Chronological(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("end must be after start")
	}
	return nil
}

// RFC3339 parses a required timestamp parameter.
func RFC3339(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC 3339", field)
	}
	return t.UTC(), nil
}
