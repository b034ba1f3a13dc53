package core

import (
	"strings"
	"time"
)

// DateLayout is the on-disk and wire representation of an expense date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64 // Assigned by the store on insert
		Date        Date
		Category    string
		Amount      Money
		Description string
	}
)

// Categories offered for interactive entry. The store accepts any string.
var KnownCategories = []string{
	"Food",
	"Bills",
	"Shopping",
	"Transport",
	"Entertainment",
	"House rent",
	"Other",
}

// IsKnownCategory reports whether c is one of KnownCategories.
func IsKnownCategory(c string) bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Anything else is ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate applies the entry rules: positive amount, real date, non-empty category.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}
