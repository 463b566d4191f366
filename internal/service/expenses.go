package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/models/dto"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// ExpenseService manages the caller's spending records.
type ExpenseService struct {
	base
}

func NewExpenseService(store storage.Store, publisher events.Publisher, opts ...Option) *ExpenseService {
	return &ExpenseService{base: newBase(store, publisher, opts)}
}

func (s *ExpenseService) Create(ctx context.Context, p auth.Principal, req dto.CreateExpenseRequest) (dto.ExpenseResponse, error) {
	expense, err := req.Model()
	if err != nil {
		return dto.ExpenseResponse{}, invalidErr(err)
	}

	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		u, err := owner(ctx, tx, p)
		if err != nil {
			return err
		}
		expense.ID = newID()
		expense.UserID = u.ID
		expense.Audit = models.NewAudit(p.Username, s.now())
		expense, err = tx.Expenses().CreateExpense(ctx, expense)
		return err
	})
	if err != nil {
		return dto.ExpenseResponse{}, err
	}

	out := dto.ExpenseFromModel(expense)
	s.publish(ctx, events.ExpenseCreated, p.Username, expense.ID, out)
	return out, nil
}

func (s *ExpenseService) Update(ctx context.Context, p auth.Principal, id string, req dto.UpdateExpenseRequest) (dto.ExpenseResponse, error) {
	var expense models.Expense
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		expense, err = ownedExpense(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if err := req.Apply(&expense); err != nil {
			return invalidErr(err)
		}
		expense.Touch(p.Username, s.now())
		expense, err = tx.Expenses().UpdateExpense(ctx, expense)
		return err
	})
	if err != nil {
		return dto.ExpenseResponse{}, err
	}

	out := dto.ExpenseFromModel(expense)
	s.publish(ctx, events.ExpenseUpdated, p.Username, expense.ID, out)
	return out, nil
}

func (s *ExpenseService) Delete(ctx context.Context, p auth.Principal, id string) error {
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := ownedExpense(ctx, tx, p, id); err != nil {
			return err
		}
		return lookupErr(tx.Expenses().DeleteExpense(ctx, id), "expense", id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.ExpenseDeleted, p.Username, id, nil)
	return nil
}

// Search returns the caller's expenses, newest first.
func (s *ExpenseService) Search(ctx context.Context, p auth.Principal, req dto.SearchExpenseRequest) (models.Page[dto.ExpenseResponse], error) {
	if err := validatePage(req.Page()); err != nil {
		return models.Page[dto.ExpenseResponse]{}, err
	}
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return models.Page[dto.ExpenseResponse]{}, err
	}
	filter, err := req.Filter(u.ID)
	if err != nil {
		return models.Page[dto.ExpenseResponse]{}, invalidErr(err)
	}
	page, err := s.store.Expenses().SearchExpenses(ctx, filter, req.Page())
	if err != nil {
		return models.Page[dto.ExpenseResponse]{}, err
	}
	return models.MapPage(page, dto.ExpenseFromModel), nil
}

// Summary totals the caller's spending for one calendar month (UTC).
func (s *ExpenseService) Summary(ctx context.Context, p auth.Principal, year, month int) (dto.MonthSummaryResponse, error) {
	if month < 1 || month > 12 {
		return dto.MonthSummaryResponse{}, invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return dto.MonthSummaryResponse{}, invalid("year must be between 1 and 9999")
	}
	u, err := owner(ctx, s.store, p)
	if err != nil {
		return dto.MonthSummaryResponse{}, err
	}
	from, to := models.MonthRange(year, month)
	totals, err := s.store.Expenses().CategoryTotals(ctx, u.ID, from, to)
	if err != nil {
		return dto.MonthSummaryResponse{}, err
	}

	summary := models.MonthSummary{Year: year, Month: month, Total: decimal.Zero, ByCategory: totals}
	for _, ct := range totals {
		summary.Total = summary.Total.Add(ct.Total)
	}
	return dto.SummaryFromModel(summary), nil
}

func ownedExpense(ctx context.Context, tx storage.Store, p auth.Principal, id string) (models.Expense, error) {
	u, err := owner(ctx, tx, p)
	if err != nil {
		return models.Expense{}, err
	}
	e, err := tx.Expenses().FindExpense(ctx, id)
	if err != nil {
		return models.Expense{}, lookupErr(err, "expense", id)
	}
	if e.UserID != u.ID {
		return models.Expense{}, ErrForbidden
	}
	return e, nil
}
