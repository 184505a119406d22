package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type Booking struct {
	ID       int64
	UserID   int64
	RoomID   int64
	DateFrom time.Time
	DateTo   time.Time
	Price    int64
}

func (b Booking) Range() DateRange { return DateRange{From: b.DateFrom, To: b.DateTo} }

// DateRange is a pair of calendar dates. Times are truncated to UTC midnight by NewDateRange.
type DateRange struct {
	From time.Time
	To   time.Time
}

func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: Day(from), To: Day(to)}
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: date_from %q", ErrValidation, from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: date_to %q", ErrValidation, to)
	}
	return NewDateRange(f, t), nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate requires From <= To.
func (r DateRange) Validate() error {
	if r.From.After(r.To) {
		return ErrInvalidRange
	}
	return nil
}

// ValidateStay requires From < To, the rule for a bookable window.
func (r DateRange) ValidateStay() error {
	if !r.From.Before(r.To) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the number of calendar days between From and To.
func (r DateRange) Nights() int {
	return int(Day(r.To).Sub(Day(r.From)).Hours() / 24)
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// Overlaps reports whether a and b share at least one day.
// Both ends are inclusive, so a stay ending on day X conflicts with one starting on day X.
func Overlaps(a, b DateRange) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if err := b.Validate(); err != nil {
		return false, err
	}
	return !a.From.After(b.To) && !b.From.After(a.To), nil
}

// Price returns unitPrice * nights for the stay.
func Price(unitPrice int64, stay DateRange) int64 {
	return unitPrice * int64(stay.Nights())
}
