package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
	Credit  CategoryType = "credit"
	Savings CategoryType = "savings"
)

type (
	// CategoryType is a loose classification label. The set above covers the
	// common cases but the store accepts any non-empty value.
	CategoryType string

	Date struct {
		time.Time
	}

	Category struct {
		ID          int64
		Description string
		Type        CategoryType
	}

	// ExpenseRecord is a single ledger entry. Amount is signed: negative
	// means money spent, positive means money received or credited.
	ExpenseRecord struct {
		ID          int64
		Date        Date
		CategoryID  int64
		Amount      decimal.Decimal
		Description string
	}
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("category does not exist")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
)

// NewDate creates a Date from year, month, day at day granularity (UTC).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true for the zero date, used for optional range bounds.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the grouping token for the date's month, e.g. "2020/02".
func (d Date) MonthKey() string {
	return d.Format("2006/01")
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Description)) == 0 {
		return ErrEmptyDescription
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.CategoryID < 1 {
		return ErrInvalidCategory
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
