package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/shopspring/decimal"
)

// Amounts accept JSON numbers or numeric strings.
type CreateExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	ExpenseDate   *time.Time       `json:"expenseDate"`
	PaymentMethod string           `json:"paymentMethod"`
}

type UpdateExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	ExpenseDate   *time.Time       `json:"expenseDate"`
	PaymentMethod *string          `json:"paymentMethod"`
}

type SearchExpenseRequest struct {
	PageIndex     int              `json:"pageIndex"`
	PageSize      int              `json:"pageSize"`
	Category      *string          `json:"category"`
	MinAmount     *decimal.Decimal `json:"minAmount"`
	MaxAmount     *decimal.Decimal `json:"maxAmount"`
	Description   *string          `json:"description"`
	PaymentMethod *string          `json:"paymentMethod"`
	StartDate     *time.Time       `json:"startDate"`
	EndDate       *time.Time       `json:"endDate"`
}

type ExpenseResponse struct {
	ID            string                 `json:"id"`
	Amount        json.Number            `json:"amount"`
	Category      models.ExpenseCategory `json:"category"`
	Description   string                 `json:"description"`
	ExpenseDate   time.Time              `json:"expenseDate"`
	PaymentMethod string                 `json:"paymentMethod"`
	AuditFields
}

type CategoryTotalResponse struct {
	Category models.ExpenseCategory `json:"category"`
	Total    json.Number            `json:"total"`
	Count    int                    `json:"count"`
}

type MonthSummaryResponse struct {
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Total      json.Number             `json:"total"`
	ByCategory []CategoryTotalResponse `json:"byCategory"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// ExpenseFromModel projects an expense for the wire; amounts always carry two decimals.
func ExpenseFromModel(e models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Amount:        money(e.Amount),
		Category:      e.Category,
		Description:   e.Description,
		ExpenseDate:   e.ExpenseDate,
		PaymentMethod: e.PaymentMethod,
		AuditFields:   auditFromModel(e.Audit),
	}
}

func SummaryFromModel(s models.MonthSummary) MonthSummaryResponse {
	out := MonthSummaryResponse{Year: s.Year, Month: s.Month, Total: money(s.Total), ByCategory: []CategoryTotalResponse{}}
	for _, ct := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, CategoryTotalResponse{Category: ct.Category, Total: money(ct.Total), Count: ct.Count})
	}
	return out
}

// Model builds an expense from a create request. Amount and expenseDate are required.
func (r CreateExpenseRequest) Model() (models.Expense, error) {
	if r.Amount == nil {
		return models.Expense{}, fmt.Errorf("amount is required")
	}
	if r.ExpenseDate == nil {
		return models.Expense{}, fmt.Errorf("expenseDate is required")
	}
	if err := ValidateAmount(*r.Amount); err != nil {
		return models.Expense{}, err
	}
	e := models.Expense{
		Amount:        *r.Amount,
		Category:      models.CategoryOther,
		Description:   r.Description,
		ExpenseDate:   models.StoredTime(*r.ExpenseDate),
		PaymentMethod: r.PaymentMethod,
	}
	if strings.TrimSpace(r.Category) != "" {
		c, err := models.ParseExpenseCategory(r.Category)
		if err != nil {
			return models.Expense{}, err
		}
		e.Category = c
	}
	return e, nil
}

// Apply overwrites the fields present in r. Nothing is written when validation fails.
func (r UpdateExpenseRequest) Apply(e *models.Expense) error {
	next := *e
	if r.Amount != nil {
		if err := ValidateAmount(*r.Amount); err != nil {
			return err
		}
		next.Amount = *r.Amount
	}
	if r.Category != nil {
		c, err := models.ParseExpenseCategory(*r.Category)
		if err != nil {
			return err
		}
		next.Category = c
	}
	setIfPresent(&next.Description, r.Description)
	setIfPresent(&next.PaymentMethod, r.PaymentMethod)
	if r.ExpenseDate != nil {
		next.ExpenseDate = models.StoredTime(*r.ExpenseDate)
	}
	*e = next
	return nil
}

// Filter scopes the request to userID.
func (r SearchExpenseRequest) Filter(userID string) (models.ExpenseFilter, error) {
	f := models.ExpenseFilter{
		UserID:        userID,
		MinAmount:     r.MinAmount,
		MaxAmount:     r.MaxAmount,
		Description:   blankToNil(r.Description),
		PaymentMethod: blankToNil(r.PaymentMethod),
		StartDate:     storedPtr(r.StartDate),
		EndDate:       storedPtr(r.EndDate),
	}
	if s := blankToNil(r.Category); s != nil {
		c, err := models.ParseExpenseCategory(*s)
		if err != nil {
			return models.ExpenseFilter{}, err
		}
		f.Category = &c
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MaxAmount.LessThan(*f.MinAmount) {
		return models.ExpenseFilter{}, fmt.Errorf("maxAmount is less than minAmount")
	}
	return f, nil
}

func (r SearchExpenseRequest) Page() models.PageRequest {
	return models.PageRequest{Index: r.PageIndex, Size: r.PageSize}
}

// ValidateAmount requires a non-negative amount with at most two decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("amount must have at most two decimal places")
	}
	if d.GreaterThanOrEqual(decimal.New(1, 12)) {
		return fmt.Errorf("amount is too large")
	}
	return nil
}
