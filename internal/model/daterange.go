package model

import (
	"errors"
	"fmt"
	"time"
)

// PortalDateLayout is the long-form date the portal's export form expects,
// e.g. "January 5, 2024".
const PortalDateLayout = "January 2, 2006"

// InputDateLayout is the date format accepted on the command line.
const InputDateLayout = "2006-01-02"

// ErrInvalidDateRange is returned when the end date is before the start date.
var ErrInvalidDateRange = errors.New("invalid date range: end date is before start date")

// DateRange is the export window. End must not be before Start; nothing
// else about the range is validated.
type DateRange struct {
	// Start is the first day of the export window.
	Start time.Time `json:"start"`

	// End is the last day of the export window.
	End time.Time `json:"end"`
}

// NewDateRange creates a DateRange and validates it.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// DefaultDateRange returns the range from one month before now to now,
// truncated to calendar days in now's location.
func DefaultDateRange(now time.Time) DateRange {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return DateRange{Start: end.AddDate(0, -1, 0), End: end}
}

// Validate reports ErrInvalidDateRange when End is before Start.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return ErrInvalidDateRange
	}
	return nil
}

// FormatStart renders Start in PortalDateLayout.
func (r DateRange) FormatStart() string {
	return r.Start.Format(PortalDateLayout)
}

// FormatEnd renders End in PortalDateLayout.
func (r DateRange) FormatEnd() string {
	return r.End.Format(PortalDateLayout)
}

// String implements fmt.Stringer.
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(InputDateLayout), r.End.Format(InputDateLayout))
}

// ParseDate parses a YYYY-MM-DD date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(InputDateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
