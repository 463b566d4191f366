package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Filters hold optional criteria: a nil field imposes no constraint, present fields are AND-ed.
// Text criteria are case-insensitive substring matches. A present criterion on an unset
// (nil) column never matches. Match mirrors the SQL predicates used by the Postgres store.

// CourseFilter narrows a user's courses.
type CourseFilter struct {
	UserID        string
	Name          *string
	Description   *string
	Room          *string
	DayOfWeek     *string
	Color         *string
	TimeStudyFrom *time.Time
	TimeStudyTo   *time.Time
}

// Match reports whether c satisfies every present criterion.
func (f CourseFilter) Match(c Course) bool {
	return c.UserID == f.UserID &&
		containsFold(c.Name, f.Name) &&
		containsFold(c.Description, f.Description) &&
		containsFold(c.Room, f.Room) &&
		containsFold(c.DayOfWeek, f.DayOfWeek) &&
		containsFold(c.Color, f.Color) &&
		notBefore(c.TimeStudy, f.TimeStudyFrom) &&
		notAfter(c.TimeStudyEnd, f.TimeStudyTo)
}

// TaskFilter narrows the tasks of a user's courses.
type TaskFilter struct {
	UserID       string
	CourseID     *string
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *TaskPriority
	Deadline     *time.Time
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}

// Match reports whether t, whose course belongs to ownerID, satisfies every present criterion.
func (f TaskFilter) Match(t Task, ownerID string) bool {
	if ownerID != f.UserID {
		return false
	}
	if f.CourseID != nil && t.CourseID != *f.CourseID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Deadline != nil && (t.Deadline == nil || !t.Deadline.Equal(*f.Deadline)) {
		return false
	}
	return containsFold(t.Title, f.Title) &&
		containsFold(t.Description, f.Description) &&
		notBefore(t.Deadline, f.DeadlineFrom) &&
		notAfter(t.Deadline, f.DeadlineTo)
}

// ExpenseFilter narrows a user's expenses.
type ExpenseFilter struct {
	UserID        string
	Category      *ExpenseCategory
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Description   *string
	PaymentMethod *string
	StartDate     *time.Time
	EndDate       *time.Time
}

// Match reports whether e satisfies every present criterion.
func (f ExpenseFilter) Match(e Expense) bool {
	if e.UserID != f.UserID {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return containsFold(e.Description, f.Description) &&
		containsFold(e.PaymentMethod, f.PaymentMethod) &&
		notBefore(&e.ExpenseDate, f.StartDate) &&
		notAfter(&e.ExpenseDate, f.EndDate)
}

func containsFold(value string, needle *string) bool {
	if needle == nil {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(*needle))
}

func notBefore(value, bound *time.Time) bool {
	if bound == nil {
		return true
	}
	return value != nil && !value.Before(*bound)
}

func notAfter(value, bound *time.Time) bool {
	if bound == nil {
		return true
	}
	return value != nil && !value.After(*bound)
}
