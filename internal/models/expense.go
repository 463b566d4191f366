package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory groups expenses for reporting.
type ExpenseCategory string

const (
	CategoryFood      ExpenseCategory = "FOOD"
	CategoryTransport ExpenseCategory = "TRANSPORT"
	CategoryStudy     ExpenseCategory = "STUDY"
	CategoryOther     ExpenseCategory = "OTHER"
)

// ExpenseCategories lists every known category in display order.
var ExpenseCategories = []ExpenseCategory{CategoryFood, CategoryTransport, CategoryStudy, CategoryOther}

// ParseExpenseCategory validates s case-insensitively.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ExpenseCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown expense category %q", s)
}

// Expense is a single spending record.
type Expense struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal
	Category      ExpenseCategory
	Description   string
	ExpenseDate   time.Time
	PaymentMethod string
	Audit
}

// CategoryTotal aggregates spending for one category.
type CategoryTotal struct {
	Category ExpenseCategory
	Total    decimal.Decimal
	Count    int
}

// MonthSummary is the spending overview for one calendar month.
type MonthSummary struct {
	Year       int
	Month      int
	Total      decimal.Decimal
	ByCategory []CategoryTotal
}

// MonthRange returns the half-open UTC interval [start, end) covering year/month.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
