package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type expenseRepo struct {
	q querier
}

// amount travels as text so no precision is lost to float conversion.
const expenseColumns = `id, user_id, amount::text, category, description, expense_date, payment_method,
	created_by, created_date, last_modified_by, last_modified_date`

const expenseWhere = `
	WHERE user_id = $1
	  AND ($2::text IS NULL OR category = $2::text)
	  AND ($3::numeric IS NULL OR amount >= $3::numeric)
	  AND ($4::numeric IS NULL OR amount <= $4::numeric)
	  AND ($5::text IS NULL OR strpos(lower(description), lower($5::text)) > 0)
	  AND ($6::text IS NULL OR strpos(lower(payment_method), lower($6::text)) > 0)
	  AND ($7::timestamptz IS NULL OR expense_date >= $7::timestamptz)
	  AND ($8::timestamptz IS NULL OR expense_date <= $8::timestamptz)`

const (
	sqlSearchExpenses = `SELECT ` + expenseColumns + ` FROM expenses` + expenseWhere + `
	ORDER BY expense_date DESC, id COLLATE "C" DESC
	LIMIT $9 OFFSET $10`

	sqlCountExpenses = `SELECT COUNT(*) FROM expenses` + expenseWhere

	sqlCategoryTotals = `
	SELECT category, SUM(amount)::text, COUNT(*)
	FROM expenses
	WHERE user_id = $1 AND expense_date >= $2 AND expense_date < $3
	GROUP BY category`
)

// CreateExpense inserts a new expense row.
func (r expenseRepo) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	const query = `
		INSERT INTO expenses (id, user_id, amount, category, description, expense_date, payment_method,
			created_by, created_date, last_modified_by, last_modified_date)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + expenseColumns
	row := r.q.QueryRow(ctx, query, e.ID, e.UserID, e.Amount.String(), string(e.Category), e.Description, e.ExpenseDate,
		e.PaymentMethod, e.CreatedBy, e.CreatedDate, e.LastModifiedBy, e.LastModifiedDate)
	return scanExpense(row)
}

// UpdateExpense overwrites the mutable fields of an expense. The owner never changes.
func (r expenseRepo) UpdateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	const query = `
		UPDATE expenses
		SET amount = $2::numeric, category = $3, description = $4, expense_date = $5, payment_method = $6,
			last_modified_by = $7, last_modified_date = $8
		WHERE id = $1
		RETURNING ` + expenseColumns
	row := r.q.QueryRow(ctx, query, e.ID, e.Amount.String(), string(e.Category), e.Description, e.ExpenseDate,
		e.PaymentMethod, e.LastModifiedBy, e.LastModifiedDate)
	return scanExpense(row)
}

// DeleteExpense removes an expense.
func (r expenseRepo) DeleteExpense(ctx context.Context, id string) error {
	return execOne(ctx, r.q, `DELETE FROM expenses WHERE id = $1`, id)
}

// FindExpense fetches an expense by id.
func (r expenseRepo) FindExpense(ctx context.Context, id string) (models.Expense, error) {
	return scanExpense(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
}

// SearchExpenses returns one page of the user's expenses matching f, newest first.
func (r expenseRepo) SearchExpenses(ctx context.Context, f models.ExpenseFilter, page models.PageRequest) (models.Page[models.Expense], error) {
	args := []any{f.UserID, enumArg(f.Category), decimalArg(f.MinAmount), decimalArg(f.MaxAmount),
		f.Description, f.PaymentMethod, f.StartDate, f.EndDate}

	var total int64
	if err := r.q.QueryRow(ctx, sqlCountExpenses, args...).Scan(&total); err != nil {
		return models.Page[models.Expense]{}, mapErr(err)
	}
	rows, err := r.q.Query(ctx, sqlSearchExpenses, append(args, page.Size, page.Offset())...)
	if err != nil {
		return models.Page[models.Expense]{}, mapErr(err)
	}
	defer rows.Close()

	items := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return models.Page[models.Expense]{}, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Expense]{}, mapErr(err)
	}
	return models.Page[models.Expense]{Items: items, Index: page.Index, Size: page.Size, TotalElements: total}, nil
}

// CategoryTotals sums spending per category over [from, to).
func (r expenseRepo) CategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]models.CategoryTotal, error) {
	rows, err := r.q.Query(ctx, sqlCategoryTotals, userID, from, to)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.CategoryTotal
	for rows.Next() {
		var category, sum string
		var count int
		if err := rows.Scan(&category, &sum, &count); err != nil {
			return nil, mapErr(err)
		}
		total, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("parse total for %s: %w", category, err)
		}
		out = append(out, models.CategoryTotal{Category: models.ExpenseCategory(category), Total: total, Count: count})
	}
	return out, mapErr(rows.Err())
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var (
		e                models.Expense
		amount, category string
	)
	if err := row.Scan(&e.ID, &e.UserID, &amount, &category, &e.Description, &e.ExpenseDate, &e.PaymentMethod,
		&e.CreatedBy, &e.CreatedDate, &e.LastModifiedBy, &e.LastModifiedDate); err != nil {
		return models.Expense{}, mapErr(err)
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Expense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = parsed
	e.Category = models.ExpenseCategory(category)
	return e, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
