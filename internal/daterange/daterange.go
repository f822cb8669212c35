package daterange

import (
	"time"

	"github.com/fdg312/mealcart/internal/apperr"
)

// Layout is the calendar date format used everywhere in the API.
const Layout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.Validation("invalid_request", "%s is required", field)
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_date", "%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// Validate checks an inclusive [start, end] range of at most maxDays days.
// maxDays <= 0 disables the length check.
func Validate(start, end string, maxDays int) error {
	s, err := ParseDate("start", start)
	if err != nil {
		return err
	}
	e, err := ParseDate("end", end)
	if err != nil {
		return err
	}
	if e.Before(s) {
		return apperr.Validation("invalid_range", "end must not be before start")
	}
	if days := int(e.Sub(s).Hours()/24) + 1; maxDays > 0 && days > maxDays {
		return apperr.Validation("range_too_long", "range must not exceed %d days", maxDays)
	}
	return nil
}
