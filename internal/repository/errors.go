// Package repository holds the MySQL data access layer.  The sentinel
// errors below let handlers and services tell failure modes apart without
// inspecting driver errors.
package repository

import (
    "errors"
    "strings"
)

var (
    // ErrVenueNotFound is returned when no venue has the requested id.
    ErrVenueNotFound = errors.New("venue not found")

    // ErrBookingNotFound is returned when no booking has the requested id.
    ErrBookingNotFound = errors.New("booking not found")

    // ErrCategoryNotFound is returned when a category name is unknown.
    ErrCategoryNotFound = errors.New("category not found")

    // ErrInvalidTransition is returned when a booking is not in a status
    // that allows the requested change (e.g. approving a held booking).
    ErrInvalidTransition = errors.New("invalid booking status transition")

    // ErrHoldExpired is returned when payment proof arrives after the hold
    // window closed.
    ErrHoldExpired = errors.New("hold expired")
)

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ss []string) []interface{} {
    out := make([]interface{}, len(ss))
    for i, s := range ss {
        out[i] = s
    }
    return out
}
